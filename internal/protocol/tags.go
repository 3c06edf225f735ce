package protocol

// Multicast groups and ports
const (
	AnnounceGroup  = "239.255.77.76"
	AnnouncePort   = 31416
	ConfigureGroup = "239.255.77.77"
	ConfigurePort  = 31417
)

// Methods
const (
	MethodAnnounce  = "announce"
	MethodConfigure = "configure"
)

// JSON-RPC 2.0 member names
const (
	TagJSONRPC = "jsonrpc"
	TagMethod  = "method"
	TagParams  = "params"
	TagResult  = "result"
	TagError   = "error"
	TagCode    = "code"
	TagMessage = "message"
	TagData    = "data"
	TagID      = "id"

	Version2 = "2.0"
)

// Announcement and configuration member names
const (
	TagDevice          = "device"
	TagUUID            = "uuid"
	TagName            = "name"
	TagType            = "type"
	TagFamilyType      = "familyType"
	TagFirmwareVersion = "firmwareVersion"
	TagHardwareID      = "hardwareId"
	TagLabel           = "label"
	TagIsRouter        = "isRouter"

	TagNetSettings         = "netSettings"
	TagInterface           = "interface"
	TagDescription         = "description"
	TagConfigurationMethod = "configurationMethod"
	TagIPv4                = "ipv4"
	TagIPv6                = "ipv6"
	TagAddress             = "address"
	TagNetmask             = "netmask"
	TagPrefix              = "prefix"
	TagManualAddress       = "manualAddress"
	TagManualNetmask       = "manualNetmask"
	TagDefaultGateway      = "defaultGateway"
	TagIPv4Address         = "ipv4Address"
	TagIPv6Address         = "ipv6Address"

	TagRouter     = "router"
	TagServices   = "services"
	TagPort       = "port"
	TagExpiration = "expiration"
	TagTTL        = "ttl"
	TagAPIVersion = "apiVersion"
)

// Configuration methods
const (
	ConfigMethodManual = "manual"
	ConfigMethodDHCP   = "dhcp"
)

// Service types found in announcements
const (
	ServiceHBMProtocol = "hbmProtocol"
	ServiceDAQStream   = "daqStream"
	ServiceHTTP        = "http"
	ServiceSSH         = "ssh"
	ServiceJetd        = "jetd"
	ServiceJetws       = "jetws"
)

// JSON-RPC error codes
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)
