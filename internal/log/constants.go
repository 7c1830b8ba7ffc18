package log

const (
	KeyAppName     = "app"
	KeyTag         = "tag"
	KeyProcess     = "process"
	KeyRequestID   = "requestId"
	KeyConfig      = "config"
	KeyEmail       = "email"
	KeyRole        = "role"
	KeyUserID      = "userId"
	KeySessionID   = "sessionId"
	KeyCartLines   = "cartLines"
	KeyOrderID     = "orderId"
	KeyOrderCode   = "orderCode"
	KeyOrderStatus = "orderStatus"
	KeyOrderItems  = "orderItems"
	KeyOrders      = "orders"
	KeyAction      = "action"
	KeyItemID      = "itemId"
	KeyProductID   = "productId"
	KeyQuantity    = "quantity"
	KeySellRate    = "sellRate"
	KeyCacheKey    = "cacheKey"
	KeyDbURL       = "dbUrl"
	KeyChannel     = "channel"

	KeyRequestBody   = "requestBody"
	KeyRequestHeader = "requestHeader"
	KeyRequestHost   = "host"
	KeyRequestIp     = "requesterIP"
	KeyRequestMethod = "requestMethod"
	KeyRequestURI    = "requestURI"
	KeyRequestURL    = "requestURL"
)
