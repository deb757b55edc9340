package manager

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ConfigStatus is the device's answer to a configuration request.
type ConfigStatus uint8

const (
	// StatusApplied - the configuration was accepted.
	StatusApplied ConfigStatus = iota

	// StatusInvalid - the configuration was rejected.
	StatusInvalid

	// StatusNotRunning - the provisioning service is not running.
	StatusNotRunning
)

// String returns the status name.
func (s ConfigStatus) String() string {
	switch s {
	case StatusApplied:
		return "APPLIED"
	case StatusInvalid:
		return "INVALID"
	case StatusNotRunning:
		return "NOT_RUNNING"
	default:
		return "UNKNOWN"
	}
}

// ConfigRequest carries station credentials from the companion.
type ConfigRequest struct {
	SSID       string `cbor:"1,keyasint"`
	Passphrase string `cbor:"2,keyasint,omitempty"`
}

// ConfigResponse is returned to the companion.
type ConfigResponse struct {
	Status ConfigStatus `cbor:"1,keyasint"`
}

var (
	payloadEncMode cbor.EncMode
	payloadDecMode cbor.DecMode
)

func init() {
	var err error

	payloadEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create payload CBOR encoder mode: %v", err))
	}

	payloadDecMode, err = cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create payload CBOR decoder mode: %v", err))
	}
}

// EncodeConfigRequest encodes a configuration request.
func EncodeConfigRequest(req ConfigRequest) ([]byte, error) {
	return payloadEncMode.Marshal(req)
}

// DecodeConfigRequest decodes a configuration request.
func DecodeConfigRequest(data []byte) (ConfigRequest, error) {
	var req ConfigRequest
	if err := payloadDecMode.Unmarshal(data, &req); err != nil {
		return ConfigRequest{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return req, nil
}

// EncodeConfigResponse encodes a configuration response.
func EncodeConfigResponse(resp ConfigResponse) ([]byte, error) {
	return payloadEncMode.Marshal(resp)
}

// DecodeConfigResponse decodes a configuration response.
func DecodeConfigResponse(data []byte) (ConfigResponse, error) {
	var resp ConfigResponse
	if err := payloadDecMode.Unmarshal(data, &resp); err != nil {
		return ConfigResponse{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return resp, nil
}
