package logschema

import "testing"

func TestValidate(t *testing.T) {
	err := Validate("calc_rate", map[string]interface{}{
		"type":     "EUR_TRY",
		"bid":      35.748,
		"ask":      36.079,
		"strategy": "decimal",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = Validate("rate_dropped", map[string]interface{}{
		"type": "USD_TRY",
	})
	if err == nil {
		t.Fatalf("expected error for missing fields")
	}
	if err := Validate("not_a_schema", nil); err != nil {
		t.Fatalf("unknown events are not validated: %v", err)
	}
}

func TestKnownEvents(t *testing.T) {
	names := Known()
	if len(names) == 0 {
		t.Fatalf("expected non-empty schema list")
	}
	found := false
	for _, n := range names {
		if n == "usdmid" {
			found = true
		}
	}
	if !found {
		t.Fatalf("usdmid not found in schemas")
	}
}
