package models

import "testing"

func TestSearchRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     *SearchRequest
		wantErr bool
	}{
		{"valid", &SearchRequest{Type: "entry", Query: "test"}, false},
		{"empty query", &SearchRequest{Type: "entry"}, true},
		{"empty type", &SearchRequest{Query: "test"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSearchRequestValidateNormalizesPagination(t *testing.T) {
	req := &SearchRequest{Type: "entry", Query: "q", Limit: 0, Offset: -3}
	if err := req.Validate(); err != nil {
		t.Fatal(err)
	}
	if req.Limit != 10 || req.Offset != 0 {
		t.Errorf("normalized limit/offset = %d/%d, want 10/0", req.Limit, req.Offset)
	}
	req = &SearchRequest{Type: "entry", Query: "q", Limit: 5000}
	if err := req.Validate(); err != nil {
		t.Fatal(err)
	}
	if req.Limit != 100 {
		t.Errorf("limit clamp = %d, want 100", req.Limit)
	}
}
