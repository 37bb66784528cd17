// Package ocr reads survey answers off a scanned or photographed form.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/saqibullah/health-risk-predictor/features"
)

// Runner turns an image into text.
type Runner interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// Tesseract runs the tesseract CLI.
type Tesseract struct {
	Binary string
	Lang   string
}

// Available reports whether the binary can be found on PATH.
func (t Tesseract) Available() error {
	if _, err := exec.LookPath(t.Binary); err != nil {
		return fmt.Errorf("tesseract not installed or not in PATH: %w", err)
	}
	return nil
}

// Recognize runs tesseract on imagePath and returns the recognised text.
func (t Tesseract) Recognize(ctx context.Context, imagePath string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.Binary, imagePath, "stdout", "-l", t.Lang)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("OCR failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// aliases are the human spellings printed on paper forms, in addition to the
// column name itself.
var aliases = map[string][]string{
	"HighBP":            {`High\s*Blood\s*Pressure`, `High\s*BP`},
	"HighChol":          {`High\s*Cholesterol`, `High\s*Chol`},
	"CholCheck":         {`Cholesterol\s*Check`, `Chol\s*Check`},
	"BMI":               {`Body\s*Mass\s*Index`},
	"PhysActivity":      {`Physical\s*Activity`, `Phys\s*Activity`},
	"HvyAlcoholConsump": {`Heavy\s*Alcohol(?:\s*Consumption)?`, `Hvy\s*Alcohol\s*Consump`},
	"AnyHealthcare":     {`Any\s*Health\s*care`},
	"NoDocbcCost":       {`No\s*Doc(?:tor)?\s*(?:bc|because\s*of)\s*Cost`},
	"GenHlth":           {`General\s*Health`, `Gen\s*Hlth`},
	"MentHlth":          {`Mental\s*Health`, `Ment\s*Hlth`},
	"PhysHlth":          {`Physical\s*Health`, `Phys\s*Hlth`},
	"DiffWalk":          {`Diff(?:iculty)?\s*Walk(?:ing)?`},
	"Had_COVID":         {`Had[\s_]*COVID`},
}

var patterns = buildPatterns()

func buildPatterns() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, features.Width)
	for _, name := range features.FeatureOrder {
		names := append([]string{regexp.QuoteMeta(name)}, aliases[name]...)
		// \b keeps "Age" from matching inside "Average" and "BP" inside "HighBP"
		expr := `(?i)\b(?:` + strings.Join(names, "|") + `)\b\s*[:=\-]?\s*(-?\d+(?:\.\d+)?)`
		out[name] = regexp.MustCompile(expr)
	}
	return out
}

// ExtractFields finds "Field: value" pairs for every survey column in text.
// Columns that do not appear are left out.
func ExtractFields(text string) map[string]float64 {
	extracted := make(map[string]float64)
	for name, re := range patterns {
		match := re.FindStringSubmatch(text)
		if len(match) < 2 {
			continue
		}
		if f, err := strconv.ParseFloat(match[1], 64); err == nil {
			extracted[name] = f
		}
	}
	return extracted
}
