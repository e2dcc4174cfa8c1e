package verification

import (
	"net/http"

	iriserrors "github.com/Ramsey-B/iris/pkg/errors"
	"github.com/Ramsey-B/iris/pkg/mapper"
	"github.com/Ramsey-B/iris/pkg/normalizers"
	"github.com/Ramsey-B/iris/pkg/tracing"
	"github.com/Ramsey-B/iris/pkg/utils"
	"github.com/Ramsey-B/iris/pkg/verification"
	"github.com/labstack/echo/v4"
)

type MapFieldsRequest struct {
	RawText      string `json:"raw_text" validate:"required"`
	DocumentType string `json:"document_type"`
}

type MapFieldsResponse struct {
	Fields        mapper.ExtractedFieldSet `json:"fields"`
	MissingFields []string                 `json:"missing_fields"`
}

type VerifyRequest struct {
	ExtractedFields Record             `json:"extracted_fields" validate:"required"`
	UserRecord      Record             `json:"user_record" validate:"required"`
	Weights         map[string]float64 `json:"weights"`
	ReferenceDate   string             `json:"reference_date"`
}

type MapAndVerifyRequest struct {
	RawText       string             `json:"raw_text" validate:"required"`
	DocumentType  string             `json:"document_type"`
	UserRecord    Record             `json:"user_record" validate:"required"`
	Weights       map[string]float64 `json:"weights"`
	ReferenceDate string             `json:"reference_date"`
}

type BatchRequest struct {
	UserRecord    Record                  `json:"user_record" validate:"required"`
	Documents     []verification.Document `json:"documents" validate:"required,min=1,max=50"`
	Weights       map[string]float64      `json:"weights"`
	ReferenceDate string                  `json:"reference_date"`
}

type BatchResponse struct {
	Results map[string]verification.MappedResult `json:"results"`
}

// Handler serves the mapping and verification endpoints
type Handler struct {
	verifier *verification.Verifier
}

func NewHandler(verifier *verification.Verifier) *Handler {
	return &Handler{verifier: verifier}
}

// RegisterRoutes registers the verification endpoints under /api/v1
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.POST("/map-fields", h.MapFields)
	g.POST("/verify", h.Verify)
	g.POST("/map-and-verify", h.MapAndVerify)
	g.POST("/verify/batch", h.VerifyBatch)
	g.GET("/verify/example", h.Example)
}

func (h *Handler) MapFields(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "verification.MapFieldsRoute")
	defer span.End()

	req, err := utils.BindRequest[MapFieldsRequest](c)
	if err != nil {
		return err
	}

	docType, err := parseDocumentType(req.DocumentType)
	if err != nil {
		return err
	}

	extracted := h.verifier.MapFields(ctx, req.RawText, docType)

	return c.JSON(http.StatusOK, MapFieldsResponse{
		Fields:        extracted,
		MissingFields: docType.MissingFields(extracted),
	})
}

func (h *Handler) Verify(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "verification.VerifyRoute")
	defer span.End()

	req, err := utils.BindRequest[VerifyRequest](c)
	if err != nil {
		return err
	}

	opts, err := options(req.Weights, req.ReferenceDate)
	if err != nil {
		return err
	}

	result, err := h.verifier.Verify(ctx, req.ExtractedFields, req.UserRecord, opts)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

func (h *Handler) MapAndVerify(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "verification.MapAndVerifyRoute")
	defer span.End()

	req, err := utils.BindRequest[MapAndVerifyRequest](c)
	if err != nil {
		return err
	}

	docType, err := parseDocumentType(req.DocumentType)
	if err != nil {
		return err
	}

	opts, err := options(req.Weights, req.ReferenceDate)
	if err != nil {
		return err
	}

	result, err := h.verifier.MapAndVerify(ctx, req.RawText, docType, req.UserRecord, opts)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

func (h *Handler) VerifyBatch(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "verification.VerifyBatchRoute")
	defer span.End()

	req, err := utils.BindRequest[BatchRequest](c)
	if err != nil {
		return err
	}

	opts, err := options(req.Weights, req.ReferenceDate)
	if err != nil {
		return err
	}

	results, err := h.verifier.VerifyBatch(ctx, req.UserRecord, req.Documents, opts)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, BatchResponse{Results: results})
}

func (h *Handler) Example(c echo.Context) error {
	result, err := h.verifier.Example(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func parseDocumentType(s string) (mapper.DocumentType, error) {
	docType, err := mapper.ParseDocumentType(s)
	if err != nil {
		return mapper.DocumentTypeNone, iriserrors.WrapVerificationError(err).
			AddStage(iriserrors.StageMapping).AddField("document_type").ToHTTPError().
			AddMetaValue("supported", mapper.DocumentTypes())
	}
	return docType, nil
}

func options(weights map[string]float64, referenceDate string) (verification.Options, error) {
	opts := verification.Options{Weights: weights}
	if referenceDate == "" {
		return opts, nil
	}

	reference, ok := normalizers.ParseISODate(referenceDate)
	if !ok {
		return opts, iriserrors.NewVerificationErrorf("reference date %q is not a YYYY-MM-DD date", referenceDate).
			AddStage(iriserrors.StageReference).AddField("reference_date")
	}
	opts.ReferenceDate = reference
	return opts, nil
}
