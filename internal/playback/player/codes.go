// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package player

import "github.com/ManuGH/playctl/internal/playback/drm"

// Player error codes.
const (
	ErrorUnspecified      = 1000
	ErrorRemote           = 1001
	ErrorBehindLiveWindow = 1002
	ErrorTimeout          = 1003

	ErrorIOUnspecified              = 2000
	ErrorIONetworkConnectionFailed  = 2001
	ErrorIONetworkConnectionTimeout = 2002
	ErrorIOBadHTTPStatus            = 2004
	ErrorIOFileNotFound             = 2005

	ErrorParsingContainerMalformed = 3001
	ErrorParsingManifestMalformed  = 3002

	ErrorDecoderInitFailed         = 4001
	ErrorDecodingFormatExceeds     = 4003
	ErrorDecodingFormatUnsupported = 4005

	ErrorDRMUnspecified              = drm.ErrorDRMUnspecified
	ErrorDRMProvisioningFailed       = drm.ErrorDRMProvisioningFailed
	ErrorDRMLicenseAcquisitionFailed = drm.ErrorDRMLicenseAcquisitionFailed
	ErrorDRMSystemError              = drm.ErrorDRMSystemError
	ErrorDRMDeviceRevoked            = drm.ErrorDRMDeviceRevoked
)

// CodeName is a stable name for logs and host messages.
func CodeName(code int) string {
	switch code {
	case ErrorUnspecified:
		return "ERROR_CODE_UNSPECIFIED"
	case ErrorRemote:
		return "ERROR_CODE_REMOTE_ERROR"
	case ErrorBehindLiveWindow:
		return "ERROR_CODE_BEHIND_LIVE_WINDOW"
	case ErrorTimeout:
		return "ERROR_CODE_TIMEOUT"
	case ErrorIOUnspecified:
		return "ERROR_CODE_IO_UNSPECIFIED"
	case ErrorIONetworkConnectionFailed:
		return "ERROR_CODE_IO_NETWORK_CONNECTION_FAILED"
	case ErrorIONetworkConnectionTimeout:
		return "ERROR_CODE_IO_NETWORK_CONNECTION_TIMEOUT"
	case ErrorIOBadHTTPStatus:
		return "ERROR_CODE_IO_BAD_HTTP_STATUS"
	case ErrorIOFileNotFound:
		return "ERROR_CODE_IO_FILE_NOT_FOUND"
	case ErrorParsingContainerMalformed:
		return "ERROR_CODE_PARSING_CONTAINER_MALFORMED"
	case ErrorParsingManifestMalformed:
		return "ERROR_CODE_PARSING_MANIFEST_MALFORMED"
	case ErrorDecoderInitFailed:
		return "ERROR_CODE_DECODER_INIT_FAILED"
	case ErrorDecodingFormatExceeds:
		return "ERROR_CODE_DECODING_FORMAT_EXCEEDS_CAPABILITIES"
	case ErrorDecodingFormatUnsupported:
		return "ERROR_CODE_DECODING_FORMAT_UNSUPPORTED"
	case ErrorDRMUnspecified:
		return "ERROR_CODE_DRM_UNSPECIFIED"
	case ErrorDRMProvisioningFailed:
		return "ERROR_CODE_DRM_PROVISIONING_FAILED"
	case ErrorDRMLicenseAcquisitionFailed:
		return "ERROR_CODE_DRM_LICENSE_ACQUISITION_FAILED"
	case ErrorDRMSystemError:
		return "ERROR_CODE_DRM_SYSTEM_ERROR"
	case ErrorDRMDeviceRevoked:
		return "ERROR_CODE_DRM_DEVICE_REVOKED"
	default:
		return "ERROR_CODE_UNKNOWN"
	}
}
