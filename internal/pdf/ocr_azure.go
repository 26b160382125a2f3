package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/computervision"
	"github.com/Azure/go-autorest/autorest"
	"github.com/disintegration/imaging"
)

// tesseractToAzure maps tesseract language codes to Computer Vision OCR
// languages.
var tesseractToAzure = map[string]computervision.OcrLanguages{
	"eng":     computervision.OcrLanguagesEn,
	"deu":     computervision.OcrLanguagesDe,
	"fra":     computervision.OcrLanguagesFr,
	"spa":     computervision.OcrLanguagesEs,
	"ita":     computervision.OcrLanguagesIt,
	"por":     computervision.OcrLanguagesPt,
	"nld":     computervision.OcrLanguagesNl,
	"rus":     computervision.OcrLanguagesRu,
	"ara":     computervision.OcrLanguagesAr,
	"jpn":     computervision.OcrLanguagesJa,
	"kor":     computervision.OcrLanguagesKo,
	"chi_sim": computervision.OcrLanguagesZhHans,
	"chi_tra": computervision.OcrLanguagesZhHant,
}

// AzureLanguage returns the Computer Vision language for a tesseract
// language code. Several codes may be joined with '+'; the first one that
// maps wins. Unknown codes select automatic detection.
func AzureLanguage(lang string) computervision.OcrLanguages {
	for _, code := range strings.Split(lang, "+") {
		if l, ok := tesseractToAzure[strings.ToLower(strings.TrimSpace(code))]; ok {
			return l
		}
	}
	return computervision.OcrLanguagesUnk
}

// printedTextClient is the part of the Computer Vision client used for OCR.
type printedTextClient interface {
	RecognizePrintedTextInStream(ctx context.Context, detectOrientation bool, imageParameter io.ReadCloser, language computervision.OcrLanguages) (computervision.OcrResult, error)
}

// AzureRecognizer sends page images to Azure Computer Vision OCR.
type AzureRecognizer struct {
	client printedTextClient
}

// NewAzureRecognizer creates a recognizer for a Computer Vision endpoint.
func NewAzureRecognizer(endpoint, apiKey string) (*AzureRecognizer, error) {
	if endpoint == "" || apiKey == "" {
		return nil, errors.New("azure OCR requires an endpoint and an API key")
	}

	client := computervision.New(endpoint)
	client.Authorizer = autorest.NewCognitiveServicesAuthorizer(apiKey)

	return &AzureRecognizer{client: &client}, nil
}

// Name implements Recognizer.
func (a *AzureRecognizer) Name() string { return "azure" }

// Recognize implements Recognizer.
func (a *AzureRecognizer) Recognize(ctx context.Context, img image.Image, lang string) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, Preprocess(img), imaging.PNG); err != nil {
		return "", fmt.Errorf("failed to encode page image: %w", err)
	}

	result, err := a.client.RecognizePrintedTextInStream(ctx, true, io.NopCloser(&buf), AzureLanguage(lang))
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}

	return ocrResultText(result), nil
}

// ocrResultText flattens an OCR result into lines, words separated by
// single spaces and regions by a blank line.
func ocrResultText(result computervision.OcrResult) string {
	if result.Regions == nil {
		return ""
	}

	var regions []string
	for _, region := range *result.Regions {
		if region.Lines == nil {
			continue
		}
		var lines []string
		for _, line := range *region.Lines {
			if line.Words == nil {
				continue
			}
			var words []string
			for _, word := range *line.Words {
				if word.Text != nil && *word.Text != "" {
					words = append(words, *word.Text)
				}
			}
			if len(words) > 0 {
				lines = append(lines, strings.Join(words, " "))
			}
		}
		if len(lines) > 0 {
			regions = append(regions, strings.Join(lines, "\n"))
		}
	}
	return strings.Join(regions, "\n\n")
}
