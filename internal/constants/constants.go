package constants

const (
	AppStorefront     = "storefront"
	AppCartService    = "cart-service"
	AppProductService = "product-service"
	AppUserService    = "user-service"
	AppShareTool      = "share-tool"
)

const (
	AudienceCartSession = "audience-cart-session"
	CookieCartSession   = "cart_session"
)

const (
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

const DefaultCurrency = "BGN"
