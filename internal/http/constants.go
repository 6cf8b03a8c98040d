package http

const (
	KeyHeaderContentType  = "Content-Type"
	KeyHeaderRequestID    = "X-Request-Id"
	KeyHeaderCartSession  = "X-Cart-Session"
	KeyHeaderAuth         = "Authorization"
	KeyHeaderAcceptLang   = "Accept-Language"
	ValueHeaderAppJson    = "application/json"
	ValueHeaderAuthBearer = "Bearer "
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)
