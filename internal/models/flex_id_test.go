package models

import (
	"encoding/json"
	"testing"
)

func TestFlexIDDecodesString(t *testing.T) {
	var payload struct {
		OrderID FlexID `json:"orderId"`
	}
	if err := json.Unmarshal([]byte(`{"orderId":" SBH-123 "}`), &payload); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if payload.OrderID != "SBH-123" {
		t.Fatalf("OrderID = %q, want SBH-123", payload.OrderID)
	}
}

func TestFlexIDDecodesNumber(t *testing.T) {
	var payload struct {
		OrderID FlexID `json:"orderId"`
	}
	if err := json.Unmarshal([]byte(`{"orderId":48213}`), &payload); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if payload.OrderID != "48213" {
		t.Fatalf("OrderID = %q, want 48213", payload.OrderID)
	}
}

func TestFlexIDDecodesNull(t *testing.T) {
	var payload struct {
		OrderID FlexID `json:"orderId"`
	}
	if err := json.Unmarshal([]byte(`{"orderId":null}`), &payload); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if payload.OrderID != "" {
		t.Fatalf("OrderID = %q, want empty", payload.OrderID)
	}
}

func TestFlexIDRejectsObject(t *testing.T) {
	var payload struct {
		OrderID FlexID `json:"orderId"`
	}
	if err := json.Unmarshal([]byte(`{"orderId":{"x":1}}`), &payload); err == nil {
		t.Fatal("expected error decoding object into FlexID")
	}
}
