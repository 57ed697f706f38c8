package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prism-docs-api/internal/config"
	"prism-docs-api/internal/infrastructure/render"
	wfmodel "prism-docs-api/internal/workflow/model"
	apperrors "prism-docs-api/pkg/errors"
)

func newTestValidator() *Validator {
	return NewValidator(&config.GenerationConfig{MaxPages: 200, MaxSlides: 60})
}

func assertValidationCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	assert.Equal(t, code, appErr.Code)
}

func TestValidateEmptyArtifact(t *testing.T) {
	v := newTestValidator()
	assertValidationCode(t, v.Validate("pdf", nil, nil), apperrors.CodeValidationFailed)
	assertValidationCode(t, v.Validate("pdf", &render.Result{}, nil), apperrors.CodeValidationFailed)
}

func TestValidatePDF(t *testing.T) {
	v := newTestValidator()

	ok := &render.Result{Data: []byte("%PDF-1.7 ..."), Pages: 3}
	require.NoError(t, v.Validate("pdf", ok, nil))

	noMagic := &render.Result{Data: []byte("<html>"), Pages: 3}
	assertValidationCode(t, v.Validate("pdf", noMagic, nil), apperrors.CodeValidationFailed)

	zeroPages := &render.Result{Data: []byte("%PDF-1.7"), Pages: 0}
	assertValidationCode(t, v.Validate("pdf", zeroPages, nil), apperrors.CodeValidationFailed)

	tooMany := &render.Result{Data: []byte("%PDF-1.7"), Pages: 201}
	assertValidationCode(t, v.Validate("pdf", tooMany, nil), apperrors.CodeValidationFailed)
}

func TestValidatePPTX(t *testing.T) {
	v := newTestValidator()

	ok := &render.Result{Data: []byte("PK\x03\x04..."), Slides: 10}
	require.NoError(t, v.Validate("pptx", ok, nil))

	notZip := &render.Result{Data: []byte("%PDF-"), Slides: 10}
	assertValidationCode(t, v.Validate("pptx", notZip, nil), apperrors.CodeValidationFailed)

	tooMany := &render.Result{Data: []byte("PK\x03\x04"), Slides: 61}
	assertValidationCode(t, v.Validate("pptx", tooMany, nil), apperrors.CodeValidationFailed)
}

func TestValidateHTML(t *testing.T) {
	v := newTestValidator()

	require.NoError(t, v.Validate("html", &render.Result{Data: []byte("<!DOCTYPE html><html></html>")}, nil))
	assertValidationCode(t, v.Validate("html", &render.Result{Data: []byte("   \n\t ")}, nil), apperrors.CodeValidationFailed)
}

func TestValidateMindmap(t *testing.T) {
	v := newTestValidator()
	content := &wfmodel.ContentModel{Title: "t"}

	ok := &render.Result{Data: []byte(`{"title":"t","nodes":{"id":"root","label":"Root","children":[]}}`)}
	require.NoError(t, v.Validate("mindmap", ok, content))

	notJSON := &render.Result{Data: []byte("not json")}
	assertValidationCode(t, v.Validate("mindmap", notJSON, content), apperrors.CodeValidationFailed)

	noRoot := &render.Result{Data: []byte(`{"title":"t"}`)}
	assertValidationCode(t, v.Validate("mindmap", noRoot, content), apperrors.CodeValidationFailed)
}

func TestValidateUnsupportedKind(t *testing.T) {
	v := newTestValidator()
	assertValidationCode(t, v.Validate("docx", &render.Result{Data: []byte("x")}, nil), apperrors.CodeUnsupportedOutput)
}
