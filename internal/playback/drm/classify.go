// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package drm

// Player error codes in the DRM range.
const (
	ErrorDRMUnspecified              = 6000
	ErrorDRMSchemeUnsupported        = 6001
	ErrorDRMProvisioningFailed       = 6002
	ErrorDRMContentError             = 6003
	ErrorDRMLicenseAcquisitionFailed = 6004
	ErrorDRMDisallowedOperation      = 6005
	ErrorDRMSystemError              = 6006
	ErrorDRMDeviceRevoked            = 6007
	ErrorDRMLicenseExpired           = 6008
)

// IsDowngradeCandidate reports whether a player error code looks like a
// security-level problem a software-level retry may fix.
// The code set is a heuristic; unrelated failures can share these codes.
func IsDowngradeCandidate(code int) bool {
	switch code {
	case ErrorDRMDeviceRevoked,
		ErrorDRMLicenseAcquisitionFailed,
		ErrorDRMProvisioningFailed,
		ErrorDRMSystemError,
		ErrorDRMUnspecified:
		return true
	default:
		return false
	}
}
