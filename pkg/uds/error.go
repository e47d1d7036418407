package uds

import "fmt"

// NegativeResponseError carries a protocol level rejection. It is not a
// codec failure, callers decide whether to retry, report or ignore.
type NegativeResponseError struct {
	Service byte
	Code    byte
}

func (e *NegativeResponseError) Error() string {
	return fmt.Sprintf("%s: %s (NRC 0x%02X)", TranslateServiceCode(e.Service), TranslateErrorCode(e.Code), e.Code)
}

func TranslateServiceCode(p byte) string {
	switch p {
	case ServiceVehicleInformation:
		return "RequestVehicleInformation"
	case ServiceDiagnosticSessionControl:
		return "DiagnosticSessionControl"
	case 0x11:
		return "ECUReset"
	case ServiceClearDiagnosticInfo:
		return "ClearDiagnosticInformation"
	case ServiceReadDTCInformation:
		return "ReadDTCInformation"
	case ServiceReadDataByIdentifier:
		return "ReadDataByIdentifier"
	case 0x23:
		return "ReadMemoryByAddress"
	case ServiceSecurityAccess:
		return "SecurityAccess"
	case 0x28:
		return "CommunicationControl"
	case 0x2E:
		return "WriteDataByIdentifier"
	case 0x31:
		return "RoutineControl"
	case 0x34:
		return "RequestDownload"
	case 0x36:
		return "TransferData"
	case 0x37:
		return "RequestTransferExit"
	case ServiceTesterPresent:
		return "TesterPresent"
	default:
		return fmt.Sprintf("Service 0x%02X", p)
	}
}

func TranslateErrorCode(p byte) string {
	switch p {
	case 0x10:
		return "General reject"
	case 0x11:
		return "Service not supported"
	case 0x12:
		return "Sub-function not supported"
	case 0x13:
		return "Incorrect message length or invalid format"
	case 0x21:
		return "Busy, repeat request"
	case 0x22:
		return "Conditions not correct"
	case 0x24:
		return "Request sequence error"
	case 0x31:
		return "Request out of range"
	case 0x33:
		return "Security access denied"
	case 0x35:
		return "Invalid key"
	case 0x36:
		return "Exceeded number of security access attempts"
	case 0x37:
		return "Required time delay not expired"
	case 0x70:
		return "Upload/download not accepted"
	case 0x71:
		return "Transfer data suspended"
	case 0x72:
		return "General programming failure"
	case 0x73:
		return "Wrong block sequence counter"
	case NRCResponsePending:
		return "Request correctly received, response pending"
	case 0x7E:
		return "Sub-function not supported in active session"
	case 0x7F:
		return "Service not supported in active session"
	case 0x81:
		return "RPM too high"
	case 0x83:
		return "Engine is running"
	case 0x84:
		return "Engine is not running"
	case 0x92:
		return "Voltage too high"
	case 0x93:
		return "Voltage too low"
	default:
		return fmt.Sprintf("Unknown error 0x%02X", p)
	}
}
