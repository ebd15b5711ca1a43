package utils

// Context keys for request-scoped values
type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	UserAgentKey contextKey = "user_agent"
	IPAddressKey contextKey = "ip_address"
	EndpointKey  contextKey = "endpoint"
)

// Listing and export constants
const (
	// ExportSheetName is the worksheet holding exported campaigns
	ExportSheetName = "Campaigns"

	// ExportContentType is the MIME type of XLSX exports
	ExportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)
