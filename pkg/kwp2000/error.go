package kwp2000

import "fmt"

// KWP2000 response codes, including the ISO 14230 specific upload and
// routine exit codes UDS dropped.
var errorCodes = map[byte]string{
	0x00: "Affirmative response",
	0x10: "General reject",
	0x11: "Mode not supported",
	0x12: "Sub-function not supported or invalid format",
	0x21: "Busy, repeat request",
	0x22: "Conditions not correct or request sequence error",
	0x23: "Routine not completed or service in progress",
	0x31: "Request out of range or session dropped",
	0x33: "Security access denied",
	0x34: "Security access allowed",
	0x35: "Invalid key supplied",
	0x36: "Exceeded number of attempts to get security access",
	0x37: "Required time delay not expired",
	0x40: "Download not accepted",
	0x44: "Ready for download",
	0x50: "Upload not accepted",
	0x54: "Ready for upload",
	0x61: "Normal exit with results available",
	0x62: "Normal exit without results available",
	0x63: "Abnormal exit with results",
	0x64: "Abnormal exit without results",
	0x71: "Transfer suspended",
	0x72: "Transfer aborted",
	0x77: "Block transfer data checksum error",
	0x78: "Response pending",
	0x79: "Incorrect byte count during block transfer",
	0x80: "Service not supported in current diagnostics session",
}

func TranslateErrorCode(p byte) string {
	if s, ok := errorCodes[p]; ok {
		return s
	}
	return fmt.Sprintf("Unknown error %X", p)
}
