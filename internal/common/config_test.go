package common

import (
	"errors"
	"testing"
	"time"

	"google.golang.org/grpc/status"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{"DB_URL", "PIPELINE_WORKERS", "PIPELINE_TIMEOUT", "OCR_TSV_CONFIDENCE", "AMQP_EXCHANGE"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()
	if cfg.Pipeline.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Pipeline.Workers)
	}
	if cfg.Pipeline.Timeout != 90*time.Second {
		t.Errorf("Timeout = %v, want 90s", cfg.Pipeline.Timeout)
	}
	if cfg.OCR.TSVConfidence {
		t.Errorf("TSVConfidence should default to false")
	}
	if cfg.Broker.Exchange != "loan.events" {
		t.Errorf("Exchange = %q", cfg.Broker.Exchange)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("PIPELINE_WORKERS", "9")
	t.Setenv("PIPELINE_TIMEOUT", "5s")
	t.Setenv("OCR_TSV_CONFIDENCE", "true")
	t.Setenv("DB_MAX_CONNS", "not-a-number")

	cfg := LoadConfig()
	if cfg.Pipeline.Workers != 9 {
		t.Errorf("Workers = %d, want 9", cfg.Pipeline.Workers)
	}
	if cfg.Pipeline.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Pipeline.Timeout)
	}
	if !cfg.OCR.TSVConfidence {
		t.Errorf("TSVConfidence = false, want true")
	}
	if cfg.Database.MaxConns != 20 {
		t.Errorf("bad int must fall back to default, got %d", cfg.Database.MaxConns)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Setenv("DB_URL", "")
	cfg := LoadConfig()
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error without DB_URL")
	}
	if ErrorCode(err) != CodeConfig {
		t.Errorf("code = %q, want %q", ErrorCode(err), CodeConfig)
	}
	if !errors.Is(err, ErrValidation) {
		t.Errorf("error should wrap ErrValidation: %v", err)
	}

	cfg.Database.DSN = "postgres://localhost/loans"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "not found", err: WrapError(ErrNotFound, "document"), want: "NotFound"},
		{name: "unsupported", err: NewAppError(CodeUnsupportedFormat, "pdf", nil), want: "FailedPrecondition"},
		{name: "ocr", err: NewAppError(CodeOCRFailed, "tesseract", errors.New("exit 1")), want: "Internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := ToStatus(tt.err)
			if got := status.Code(st).String(); got != tt.want {
				t.Fatalf("code = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestValidator_Rules(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		rule    ValidationRule
		wantErr bool
	}{
		{name: "uuid ok", value: "6f1c1b9e-8d53-4a38-9a59-9c1b7b1e2f10", rule: UUID},
		{name: "uuid malformed", value: "not-a-uuid", rule: UUID, wantErr: true},
		{name: "uuid wrong type", value: 42, rule: UUID, wantErr: true},
		{name: "required blank", value: "  ", rule: Required, wantErr: true},
		{name: "positive zero", value: 0, rule: Positive, wantErr: true},
		{name: "one of", value: "payslip", rule: OneOf("payslip", "other")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidator().Field("f", tt.value, tt.rule).Error()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Error() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !IsValidationError(err) {
				t.Fatalf("error %v does not wrap ErrValidation", err)
			}
		})
	}
}
