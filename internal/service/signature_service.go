package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-admission-api/pkg/config"
	appErrors "github.com/noah-isme/sma-admission-api/pkg/errors"
	"github.com/noah-isme/sma-admission-api/pkg/signature"
)

type artifactStorage interface {
	Save(filename string, data []byte) (string, error)
	Read(filename string) ([]byte, error)
	Delete(filename string) error
}

type urlSigner interface {
	Generate(ownerID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (ownerID, relPath string, expiresAt time.Time, err error)
}

// SignatureCanvas describes the drawing element the strokes were recorded on.
type SignatureCanvas struct {
	CSSWidth   int     `json:"css_width" validate:"required,min=1,max=4096"`
	CSSHeight  int     `json:"css_height" validate:"required,min=1,max=4096"`
	PixelRatio float64 `json:"pixel_ratio" validate:"omitempty,gt=0,lte=4"`
}

// SignatureInput is the body of the signature step: either recorded strokes or a PNG data URL.
type SignatureInput struct {
	Canvas  *SignatureCanvas   `json:"canvas,omitempty"`
	Strokes []signature.Stroke `json:"strokes,omitempty" validate:"max=256,dive"`
	DataURL string             `json:"data_url,omitempty"`
}

// SignatureService turns pointer input into stored signature artifacts.
type SignatureService struct {
	storage  artifactStorage
	signer   urlSigner
	cfg      config.SignatureConfig
	validate *validator.Validate
	logger   *zap.Logger
}

// NewSignatureService constructs a SignatureService.
func NewSignatureService(storage artifactStorage, signer urlSigner, cfg config.SignatureConfig, logger *zap.Logger) *SignatureService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CanvasWidth <= 0 {
		cfg.CanvasWidth = 600
	}
	if cfg.CanvasHeight <= 0 {
		cfg.CanvasHeight = 200
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 512 * 1024
	}
	validate := validator.New()
	useJSONFieldNames(validate)
	return &SignatureService{storage: storage, signer: signer, cfg: cfg, validate: validate, logger: logger}
}

// Capture renders the input and returns the PNG as a data URL.
func (s *SignatureService) Capture(input SignatureInput) (string, error) {
	verr := &ValidationError{}
	if err := verr.merge("signature.", s.validate.Struct(input)); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate signature")
	}
	if err := verr.orNil(); err != nil {
		return "", err
	}

	var (
		png []byte
		err error
	)
	switch {
	case strings.TrimSpace(input.DataURL) != "":
		png, err = s.fromDataURL(input.DataURL)
	default:
		png, err = s.fromStrokes(input)
	}
	if err != nil {
		return "", mapSignatureError(err)
	}
	if int64(len(png)) > s.cfg.MaxBytes {
		return "", appErrors.Clone(appErrors.ErrValidation, "signature image too large").
			WithDetails(map[string]interface{}{"fields": map[string]string{"signature": "max"}})
	}
	return signature.EncodeDataURL(png), nil
}

func (s *SignatureService) fromDataURL(dataURL string) ([]byte, error) {
	if int64(len(dataURL)) > s.cfg.MaxBytes*2 {
		return nil, signature.ErrInvalidImage
	}
	raw, err := signature.DecodeDataURL(dataURL)
	if err != nil {
		return nil, err
	}
	return signature.Normalize(raw)
}

func (s *SignatureService) fromStrokes(input SignatureInput) ([]byte, error) {
	width, height, ratio := s.cfg.CanvasWidth, s.cfg.CanvasHeight, 1.0
	if input.Canvas != nil {
		width, height = input.Canvas.CSSWidth, input.Canvas.CSSHeight
		if input.Canvas.PixelRatio > 0 {
			ratio = input.Canvas.PixelRatio
		}
	}
	surface := signature.NewSurface(width, height, ratio, signature.WithStrokeWidth(s.cfg.StrokeWidth))
	if err := surface.Replay(input.Strokes); err != nil {
		return nil, err
	}
	return surface.Capture()
}

func mapSignatureError(err error) error {
	switch {
	case errors.Is(err, signature.ErrNothingDrawn):
		return appErrors.Wrap(err, appErrors.ErrNothingDrawn.Code, appErrors.ErrNothingDrawn.Status, appErrors.ErrNothingDrawn.Message).
			WithDetails(map[string]interface{}{"fields": map[string]string{"signature": "required"}})
	case errors.Is(err, signature.ErrTooLarge):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "signature image too large").
			WithDetails(map[string]interface{}{"fields": map[string]string{"signature": "max"}})
	case errors.Is(err, signature.ErrInvalidImage):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid signature image").
			WithDetails(map[string]interface{}{"fields": map[string]string{"signature": "image"}})
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to capture signature")
	}
}

// Store persists a captured data URL and returns the artifact reference.
func (s *SignatureService) Store(ctx context.Context, tenantID, dataURL string) (string, error) {
	png, err := signature.DecodeDataURL(dataURL)
	if err != nil {
		return "", fmt.Errorf("decode signature: %w", err)
	}
	name := fmt.Sprintf("signatures/%s/%s.png", tenantID, uuid.NewString())
	ref, err := s.storage.Save(name, png)
	if err != nil {
		return "", fmt.Errorf("store signature: %w", err)
	}
	return ref, nil
}

// Delete removes an artifact that no enrollment ended up referencing.
func (s *SignatureService) Delete(ref string) error {
	if ref == "" {
		return nil
	}
	return s.storage.Delete(ref)
}

// SignedURL returns a time-limited token for downloading the artifact of an enrollment.
func (s *SignatureService) SignedURL(enrollmentID, ref string) (string, time.Time, error) {
	token, expiresAt, err := s.signer.Generate(enrollmentID, ref)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign signature url: %w", err)
	}
	return token, expiresAt, nil
}

// Open validates a download token and returns the artifact bytes.
func (s *SignatureService) Open(token string) ([]byte, error) {
	_, ref, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "signature link invalid or expired")
	}
	data, err := s.storage.Read(ref)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "signature not found")
	}
	return data, nil
}

// Load returns the artifact scaled to fit a receipt.
func (s *SignatureService) Load(ref string) ([]byte, error) {
	data, err := s.storage.Read(ref)
	if err != nil {
		return nil, err
	}
	img, err := signature.Fit(data, 600, 200)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode signature: %w", err)
	}
	return buf.Bytes(), nil
}
