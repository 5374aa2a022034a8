package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docbuilder/internal/codec"
	"docbuilder/internal/domain"
	"docbuilder/internal/editor"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	shareIssuer = "docbuilder"
	shareScope  = "public-template"
)

// shareClaims identify the template a public link points at.
type shareClaims struct {
	TemplateID string `json:"tid"`
	Scope      string `json:"scope"`
	jwt.RegisteredClaims
}

// ShareService issues and resolves signed public links for stored
// templates. Only the most recently issued token of a template is valid.
type ShareService struct {
	secret   []byte
	storage  *TemplateStorage
	exporter *TemplateExporter
	logger   domain.Logger
	now      func() time.Time
}

func NewShareService(secret string, storage *TemplateStorage, exporter *TemplateExporter, logger domain.Logger) *ShareService {
	return &ShareService{
		secret:   []byte(secret),
		storage:  storage,
		exporter: exporter,
		logger:   logger,
		now:      time.Now,
	}
}

// IssuePublicToken signs a token for the stored template and records it as
// the template's public token.
func (s *ShareService) IssuePublicToken(ctx context.Context, templateID string) (string, error) {
	t, err := s.storage.GetTemplate(ctx, templateID)
	if err != nil {
		return "", err
	}

	now := s.now()
	claims := shareClaims{
		TemplateID: templateID,
		Scope:      shareScope,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.New().String(),
			Issuer:   shareIssuer,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	ed := editor.New(editor.Options{Logger: s.logger, Now: s.now})
	ed.Load(t)
	if err := ed.SetPublicToken(token); err != nil {
		return "", err
	}
	if err := s.storage.SaveTemplate(ctx, ed.Template()); err != nil {
		return "", err
	}
	s.logger.Info("Public token issued", "template_id", templateID)
	return token, nil
}

// ParseToken returns the template id a token was issued for.
func (s *ShareService) ParseToken(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &shareClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(shareIssuer),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*shareClaims)
	if !ok || claims.Scope != shareScope || claims.TemplateID == "" {
		return "", domain.ErrInvalidToken
	}
	return claims.TemplateID, nil
}

// PublicExport returns the interchange document of the template a token
// points at. Superseded tokens and deleted templates are both reported as
// domain.ErrInvalidToken.
func (s *ShareService) PublicExport(ctx context.Context, token string) (codec.PDFMakerTemplate, error) {
	templateID, err := s.ParseToken(token)
	if err != nil {
		return codec.PDFMakerTemplate{}, err
	}
	t, err := s.storage.GetTemplate(ctx, templateID)
	if errors.Is(err, domain.ErrTemplateNotFound) {
		return codec.PDFMakerTemplate{}, domain.ErrInvalidToken
	}
	if err != nil {
		return codec.PDFMakerTemplate{}, err
	}
	if t.PublicToken != token {
		return codec.PDFMakerTemplate{}, domain.ErrInvalidToken
	}
	return s.exporter.ExportData(t), nil
}
