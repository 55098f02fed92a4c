package handlers

import (
	"encoding/json"

	"github.com/Nexlock/nexlock-module/internal/protocol"
	"github.com/Nexlock/nexlock-module/internal/session"
	"github.com/Nexlock/nexlock-module/internal/validator"
)

// NewValidationResultHandler delivers the coordinator's authorization
// decision to the validator. The validator ignores decisions with no
// pending scan, including decisions arriving after their own timeout.
func NewValidationResultHandler(v *validator.Validator) session.HandlerFunc {
	return func(payload json.RawMessage) error {
		res, err := protocol.Decode[protocol.NFCValidationResult](payload)
		if err != nil {
			return err
		}
		v.ApplyDecision(res.Valid, res.LockerID, res.Message)
		return nil
	}
}
