// Package uds builds and parses UDS (ISO 14229) request and response
// byte sequences. The codec side is stateless and pure, session state
// belongs to Client.
package uds

// Diagnostic service identifiers. The values are the wire contract.
const (
	ServiceDiagnosticSessionControl  = 0x10
	ServiceClearDiagnosticInfo       = 0x14
	ServiceReadDTCInformation        = 0x19
	ServiceReadDataByIdentifier      = 0x22
	ServiceSecurityAccess            = 0x27
	ServiceTesterPresent             = 0x3E
	ServiceVehicleInformation        = 0x09 // legacy OBD mode 09, used alongside UDS
	PositiveResponseOffset           = 0x40
	NegativeResponseSID              = 0x7F
	NRCResponsePending               = 0x78
	SubFunctionReportDTCByStatusMask = 0x02
)

// Common data identifiers.
const (
	DIDVIN           uint16 = 0xF190
	DIDECUSerial     uint16 = 0xF18C
	DIDSparePartNo   uint16 = 0xF187
	DIDAppSoftwareID uint16 = 0xF194
)

// Diagnostic session types for service 0x10.
const (
	SessionDefault     byte = 0x01
	SessionProgramming byte = 0x02
	SessionExtended    byte = 0x03
)

// Request is a single UDS request PDU.
type Request struct {
	ServiceID   byte
	SubFunction *byte
	Payload     []byte
}

// Bytes serializes the request to [service] [subfunction?] payload.
func (r *Request) Bytes() []byte {
	out := make([]byte, 0, 2+len(r.Payload))
	out = append(out, r.ServiceID)
	if r.SubFunction != nil {
		out = append(out, *r.SubFunction)
	}
	return append(out, r.Payload...)
}

// ResponseSID returns the positive response service id for this request.
func (r *Request) ResponseSID() byte {
	return r.ServiceID + PositiveResponseOffset
}

// Build returns a raw request: service id followed by data.
func Build(serviceID byte, data []byte) []byte {
	out := make([]byte, 0, 1+len(data))
	out = append(out, serviceID)
	return append(out, data...)
}

// BuildReadDID builds a ReadDataByIdentifier request for one DID.
func BuildReadDID(did uint16) []byte {
	return []byte{ServiceReadDataByIdentifier, byte(did >> 8), byte(did)}
}

// BuildClearDTC builds a ClearDiagnosticInformation request for the
// "all groups" DTC group FFFFFF.
func BuildClearDTC() []byte {
	return []byte{ServiceClearDiagnosticInfo, 0xFF, 0xFF, 0xFF}
}

// BuildReadDTCByStatus builds a ReadDTCInformation reportDTCByStatusMask
// request.
func BuildReadDTCByStatus(statusMask byte) []byte {
	return []byte{ServiceReadDTCInformation, SubFunctionReportDTCByStatusMask, statusMask}
}

// BuildSessionControl builds a DiagnosticSessionControl request.
func BuildSessionControl(session byte) []byte {
	return []byte{ServiceDiagnosticSessionControl, session}
}

// BuildSecurityAccessSeed requests the seed for the given access level
// (odd sub-function).
func BuildSecurityAccessSeed(level byte) []byte {
	return []byte{ServiceSecurityAccess, level}
}

// BuildSecurityAccessKey sends the computed key for the given seed level.
// The key sub-function is seed level + 1.
func BuildSecurityAccessKey(level byte, key []byte) []byte {
	return Build(ServiceSecurityAccess, append([]byte{level + 1}, key...))
}

// BuildTesterPresent builds a TesterPresent keepalive request.
func BuildTesterPresent() []byte {
	return []byte{ServiceTesterPresent, 0x00}
}
