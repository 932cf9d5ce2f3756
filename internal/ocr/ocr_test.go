package ocr

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestExtract_FormatRouting(t *testing.T) {
	calls := 0
	runner := RunnerFunc(func(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
		calls++
		return []byte("Surname: Doe\r\n\r\n\r\n\r\nGiven Name:\tJane   \n"), nil, nil
	})
	x := NewExtractorWithRunner(Config{}, runner, quietLogger())

	tests := []struct {
		path    string
		wantErr error
	}{
		{path: "/uploads/form.PNG"},
		{path: "/uploads/form.jpeg"},
		{path: "/uploads/form.pdf", wantErr: ErrUnsupportedFormat},
		{path: "/uploads/form.docx", wantErr: ErrInvalidFormat},
		{path: "/uploads/form", wantErr: ErrInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			before := calls
			res, err := x.Extract(context.Background(), tt.path)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				if calls != before {
					t.Fatalf("tesseract ran for a rejected format")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Text != "Surname: Doe\n\nGiven Name: Jane" {
				t.Fatalf("Text = %q", res.Text)
			}
			if res.Method != "image-ocr" || res.Language != "eng" {
				t.Fatalf("unexpected result metadata: %+v", res)
			}
		})
	}
}

func TestExtract_RunnerArgs(t *testing.T) {
	var got []string
	runner := RunnerFunc(func(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
		got = append([]string{name}, args...)
		return []byte("ok"), nil, nil
	})
	x := NewExtractorWithRunner(Config{Tesseract: "/usr/bin/tesseract", TesseractLang: "eng+tpi", PSM: 6, TessdataDir: "/td"}, runner, quietLogger())
	if _, err := x.Extract(context.Background(), "a.jpg"); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := "/usr/bin/tesseract a.jpg stdout -l eng+tpi --psm 6 --tessdata-dir /td"
	if strings.Join(got, " ") != want {
		t.Fatalf("command = %q, want %q", strings.Join(got, " "), want)
	}
}

func TestExtract_RunnerFailureAndTimeout(t *testing.T) {
	boom := errors.New("exit status 1")
	x := NewExtractorWithRunner(Config{}, RunnerFunc(func(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
		return nil, []byte("Error in pixReadStream"), boom
	}), quietLogger())
	if _, err := x.Extract(context.Background(), "corrupt.png"); !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped %v", err, boom)
	}

	slow := NewExtractorWithRunner(Config{}, RunnerFunc(func(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
		<-ctx.Done()
		return nil, nil, errors.New("signal: killed")
	}), quietLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := slow.Extract(ctx, "big.png"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want deadline exceeded", err)
	}
}

func TestExtract_TSVConfidence(t *testing.T) {
	tsv := "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
		"5\t1\t1\t1\t1\t1\t0\t0\t10\t10\t90\tSurname\n" +
		"5\t1\t1\t1\t1\t2\t0\t0\t10\t10\t70\tDoe\n"
	runner := RunnerFunc(func(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
		if args[len(args)-1] == "tsv" {
			return []byte(tsv), nil, nil
		}
		return []byte("Surname: Doe"), nil, nil
	})
	x := NewExtractorWithRunner(Config{EnableTSVConfidence: true}, runner, quietLogger())
	res, err := x.Extract(context.Background(), "a.png")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Confidence <= heuristicConfidence(res.Text)*0.3 || res.Confidence > 1 {
		t.Fatalf("Confidence = %v out of expected range", res.Confidence)
	}
}

func TestNormalize_KeepsDigits(t *testing.T) {
	in := "Date of Birth: 05/03/1990\n-----\nLoan Amount:  $1,200.00"
	want := "Date of Birth: 05/03/1990\n\nLoan Amount: $1,200.00"
	if got := Normalize(in); got != want {
		t.Fatalf("Normalize() = %q, want %q", got, want)
	}
}
