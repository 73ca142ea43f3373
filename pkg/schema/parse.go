package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Parse decodes an untyped payload into the typed payload of variant and
// validates it. Missing list button text and condition field/operator are
// filled with the authoring defaults; anything else malformed is rejected.
func Parse(id string, variant domain.Variant, raw map[string]any) (domain.Node, error) {
	if id == "" {
		return domain.Node{}, &SchemaError{Variant: variant, Field: "id", Reason: "is required"}
	}
	if !variant.Valid() {
		return domain.Node{}, &SchemaError{NodeID: id, Variant: variant, Field: "type", Reason: "unknown variant"}
	}

	payload, err := decode(variant, raw)
	if err != nil {
		return domain.Node{}, decodeError(id, variant, err)
	}
	payload = withDefaults(payload, raw)

	if err := checkPayload(id, payload); err != nil {
		return domain.Node{}, err
	}
	return domain.Node{ID: id, Data: payload}, nil
}

// Raw converts a typed payload back into its untyped form.
func Raw(payload domain.Payload) (map[string]any, error) {
	out := make(map[string]any)
	if payload == nil {
		return out, nil
	}
	if err := mapstructure.Decode(payload, &out); err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", payload.Variant(), err)
	}
	return out, nil
}

func decode(variant domain.Variant, raw map[string]any) (domain.Payload, error) {
	switch variant {
	case domain.VariantTrigger:
		return decodeInto[domain.TriggerData](raw)
	case domain.VariantMessage:
		return decodeInto[domain.MessageData](raw)
	case domain.VariantButtons:
		return decodeInto[domain.ButtonsData](raw)
	case domain.VariantList:
		return decodeInto[domain.ListData](raw)
	case domain.VariantAskText:
		return decodeInto[domain.AskTextData](raw)
	case domain.VariantCondition:
		return decodeInto[domain.ConditionData](raw)
	case domain.VariantAgent:
		return domain.AgentData{}, nil
	}
	return nil, fmt.Errorf("unknown variant %q", variant)
}

func decodeInto[T domain.Payload](raw map[string]any) (domain.Payload, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &out,
		TagName: "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, err
	}
	return out, nil
}

func withDefaults(payload domain.Payload, raw map[string]any) domain.Payload {
	switch d := payload.(type) {
	case domain.ListData:
		if isBlank(raw, "buttonText") {
			d.ButtonText = domain.DefaultListButtonText
		}
		return d
	case domain.ConditionData:
		if isBlank(raw, "field") {
			d.Field = domain.FieldMessage
		}
		if isBlank(raw, "operator") {
			d.Operator = domain.OperatorContains
		}
		return d
	}
	return payload
}

func isBlank(raw map[string]any, key string) bool {
	v, ok := raw[key]
	if !ok || v == nil {
		return true
	}
	s, isString := v.(string)
	return isString && strings.TrimSpace(s) == ""
}

// decodeError converts mapstructure type mismatches into schema errors.
func decodeError(id string, variant domain.Variant, err error) error {
	var mErr *mapstructure.Error
	if !errors.As(err, &mErr) {
		return &SchemaError{NodeID: id, Variant: variant, Reason: err.Error()}
	}
	errs := make([]error, 0, len(mErr.Errors))
	for _, msg := range mErr.Errors {
		errs = append(errs, &SchemaError{
			NodeID:  id,
			Variant: variant,
			Field:   quotedField(msg),
			Reason:  msg,
		})
	}
	return join(errs)
}

// quotedField extracts the field name mapstructure puts between the first pair of quotes.
func quotedField(msg string) string {
	start := strings.IndexByte(msg, '\'')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(msg[start+1:], '\'')
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}
