package log

const (
	KeyAppName            = "app"
	KeyRequestID          = "requestId"
	KeyProcess            = "process"
	KeyToken              = "token"
	KeyEmail              = "email"
	KeyTag                = "tag"
	KeyRequest            = "request"
	KeyRequestBody        = "requestBody"
	KeyRequestHeader      = "requestHeader"
	KeyRequestHost        = "host"
	KeyRequestIp          = "requesterIP"
	KeyRequestMethod      = "requestMethod"
	KeyRequestProcessedAt = "requestProcessedAt"
	KeyRequestURI         = "requestURI"
	KeyRequestURL         = "requestURL"
	KeyConfig             = "config"
	KeyTraceID            = "traceId"
	KeySpanID             = "spanId"
	KeyPathValues         = "pathValues"

	KeySessionID     = "sessionId"
	KeyCacheKey      = "cacheKey"
	KeyProductID     = "productId"
	KeyProductIDs    = "productIds"
	KeyQuantity      = "quantity"
	KeyCartLines     = "cartLines"
	KeyCartVersion   = "cartVersion"
	KeyShareToken    = "shareToken"
	KeyShareState    = "shareState"
	KeyLocale        = "locale"
	KeyUserID        = "userId"
	KeyRole          = "role"
	KeyStoreBackend  = "storeBackend"
	KeyResolvedCount = "resolvedCount"
	KeyInvalidIDs    = "invalidIds"
)
