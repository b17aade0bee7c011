package controller

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo"

	"quote-management-api/internal/common"
	"quote-management-api/internal/entity"
	"quote-management-api/internal/service"
)

type quoteRoutesHandler struct {
	quoteService service.Quote
	validate     *validator.Validate
}

func newQuoteRoutesHandler(outer *echo.Group, services *service.Services, v *validator.Validate) *quoteRoutesHandler {
	h := &quoteRoutesHandler{quoteService: services.Quote, validate: v}

	outer.POST("/quotes/new", h.PostQuoteRequest)
	outer.GET("/quotes/my", h.GetVendorQuoteRequests)
	outer.GET("/quotes/:requestId", h.GetQuoteRequest)

	outer.POST("/quotes/:requestId/draft", h.SaveDraft)
	outer.POST("/quotes/:requestId/send", h.SendQuote)

	outer.GET("/quotes/:requestId/active", h.GetActiveRevision)
	outer.GET("/quotes/:requestId/revisions", h.GetRevisions)

	outer.PUT("/revisions/:revisionId/respond", h.RespondToQuote)
	outer.GET("/revisions/:revisionId/comments", h.GetComments)

	return h
}

type postQuoteRequestInput struct {
	VendorId    string `json:"vendorId" validate:"required,uuid"`
	RequesterId string `json:"requesterId" validate:"required,uuid"`
	Name        string `json:"name" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email"`
	Details     string `json:"details" validate:"max=2000"`
	EventType   string `json:"eventType" validate:"required,max=100"`
	EventDate   string `json:"eventDate" validate:"required"`
	BudgetCents int64  `json:"budgetCents" validate:"gte=0"`
}

// /quotes/new
func (h *quoteRoutesHandler) PostQuoteRequest(c echo.Context) error {
	var input postQuoteRequestInput
	if err := c.Bind(&input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{"Input data is not formed correctly"}); e != nil {
			return e
		}

		return err
	}

	if err := h.validate.Struct(input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{getAllErrorMessages(err)}); e != nil {
			return e
		}

		return err
	}

	eventDate, err := time.Parse(time.RFC3339, input.EventDate)
	if err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{"'eventDate': must be an RFC3339 timestamp"}); e != nil {
			return e
		}

		return err
	}

	model := &entity.CreateQuoteRequestInput{
		VendorId: input.VendorId, RequesterId: input.RequesterId,
		Name: input.Name, Email: input.Email, Details: input.Details,
		EventType: input.EventType, EventDate: eventDate, BudgetCents: input.BudgetCents,
	}

	request, err := h.quoteService.CreateQuoteRequest(c.Request().Context(), model)
	if err != nil {
		return respondServiceError(c, err)
	}

	if e := c.JSON(http.StatusOK, request); e != nil {
		return e
	}

	return nil
}

type getVendorQuoteRequestsInput struct {
	VendorId string `query:"vendorId" validate:"required,uuid"`
	Status   string `query:"status" validate:"omitempty,oneof=pending quoted finalised rejected"`
	Limit    int    `query:"limit" validate:"gte=0,lte=50"`
	Offset   int    `query:"offset" validate:"gte=0"`
}

// /quotes/my
func (h *quoteRoutesHandler) GetVendorQuoteRequests(c echo.Context) error {
	input := getVendorQuoteRequestsInput{Limit: defaultLimit, Offset: defaultOffset}
	if err := c.Bind(&input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{"Input data is not formed correctly"}); e != nil {
			return e
		}

		return err
	}

	if err := h.validate.Struct(input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{getAllErrorMessages(err)}); e != nil {
			return e
		}

		return err
	}

	pg := entity.NewPaginationInput(input.Limit, input.Offset)
	requests, err := h.quoteService.ListVendorQuoteRequests(c.Request().Context(), input.VendorId, input.Status, pg)
	if err != nil {
		return respondServiceError(c, err)
	}

	if e := c.JSON(http.StatusOK, requests); e != nil {
		return e
	}

	return nil
}

type actorInput struct {
	ActorId string `query:"actorId" validate:"required,uuid"`
}

// /quotes/:requestId
func (h *quoteRoutesHandler) GetQuoteRequest(c echo.Context) error {
	var input actorInput
	if err := c.Bind(&input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{"Input data is not formed correctly"}); e != nil {
			return e
		}

		return err
	}

	if err := h.validate.Struct(input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{getAllErrorMessages(err)}); e != nil {
			return e
		}

		return err
	}

	request, err := h.quoteService.GetQuoteRequestById(c.Request().Context(), c.Param("requestId"), input.ActorId)
	if err != nil {
		return respondServiceError(c, err)
	}

	if e := c.JSON(http.StatusOK, request); e != nil {
		return e
	}

	return nil
}

type quoteFieldsInput struct {
	VendorId     string `json:"vendorId" validate:"required,uuid"`
	AmountCents  int64  `json:"amountCents" validate:"gte=0"`
	Description  string `json:"description" validate:"max=2000"`
	Terms        string `json:"terms" validate:"max=2000"`
	ValidityDays int    `json:"validityDays" validate:"gte=0,lte=365"`
	Notes        string `json:"notes" validate:"max=2000"`
}

func (i *quoteFieldsInput) toFields() *entity.QuoteFields {
	return &entity.QuoteFields{
		AmountCents:   i.AmountCents,
		Description:   i.Description,
		Terms:         i.Terms,
		ValidityDays:  i.ValidityDays,
		InternalNotes: i.Notes,
	}
}

type revisionIdResponse struct {
	RevisionId string `json:"revisionId"`
}

// /quotes/:requestId/draft
func (h *quoteRoutesHandler) SaveDraft(c echo.Context) error {
	var input quoteFieldsInput
	if err := c.Bind(&input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{"Input data is not formed correctly"}); e != nil {
			return e
		}

		return err
	}

	if err := h.validate.Struct(input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{getAllErrorMessages(err)}); e != nil {
			return e
		}

		return err
	}

	revisionId, err := h.quoteService.CreateOrUpdateDraft(c.Request().Context(), c.Param("requestId"), input.VendorId, input.toFields())
	if err != nil {
		return respondServiceError(c, err)
	}

	if e := c.JSON(http.StatusOK, revisionIdResponse{revisionId}); e != nil {
		return e
	}

	return nil
}

// /quotes/:requestId/send
func (h *quoteRoutesHandler) SendQuote(c echo.Context) error {
	var input quoteFieldsInput
	if err := c.Bind(&input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{"Input data is not formed correctly"}); e != nil {
			return e
		}

		return err
	}

	if err := h.validate.Struct(input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{getAllErrorMessages(err)}); e != nil {
			return e
		}

		return err
	}

	revisionId, err := h.quoteService.SendQuote(c.Request().Context(), c.Param("requestId"), input.VendorId, input.toFields())
	if err != nil {
		return respondServiceError(c, err)
	}

	if e := c.JSON(http.StatusOK, revisionIdResponse{revisionId}); e != nil {
		return e
	}

	return nil
}

// /quotes/:requestId/active
func (h *quoteRoutesHandler) GetActiveRevision(c echo.Context) error {
	var input actorInput
	if err := c.Bind(&input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{"Input data is not formed correctly"}); e != nil {
			return e
		}

		return err
	}

	if err := h.validate.Struct(input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{getAllErrorMessages(err)}); e != nil {
			return e
		}

		return err
	}

	revision, err := h.quoteService.ActiveRevision(c.Request().Context(), c.Param("requestId"), input.ActorId)
	if err != nil {
		return respondServiceError(c, err)
	}
	if revision == nil {
		if e := c.NoContent(http.StatusNoContent); e != nil {
			return e
		}

		return nil
	}

	if e := c.JSON(http.StatusOK, revision); e != nil {
		return e
	}

	return nil
}

type getRevisionsInput struct {
	ActorId string `query:"actorId" validate:"required,uuid"`
	Limit   int    `query:"limit" validate:"gte=0,lte=50"`
	Offset  int    `query:"offset" validate:"gte=0"`
}

// /quotes/:requestId/revisions
func (h *quoteRoutesHandler) GetRevisions(c echo.Context) error {
	input := getRevisionsInput{Limit: defaultLimit, Offset: defaultOffset}
	if err := c.Bind(&input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{"Input data is not formed correctly"}); e != nil {
			return e
		}

		return err
	}

	if err := h.validate.Struct(input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{getAllErrorMessages(err)}); e != nil {
			return e
		}

		return err
	}

	pg := entity.NewPaginationInput(input.Limit, input.Offset)
	revisions, err := h.quoteService.ListRevisions(c.Request().Context(), c.Param("requestId"), input.ActorId, pg)
	if err != nil {
		return respondServiceError(c, err)
	}

	if e := c.JSON(http.StatusOK, revisions); e != nil {
		return e
	}

	return nil
}

type respondInput struct {
	ResponderId string `json:"responderId" validate:"required,uuid"`
	Decision    string `json:"decision" validate:"required,oneof=accept reject"`
	Feedback    string `json:"feedback" validate:"max=2000"`
}

// /revisions/:revisionId/respond
func (h *quoteRoutesHandler) RespondToQuote(c echo.Context) error {
	var input respondInput
	if err := c.Bind(&input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{"Input data is not formed correctly"}); e != nil {
			return e
		}

		return err
	}

	if err := h.validate.Struct(input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{getAllErrorMessages(err)}); e != nil {
			return e
		}

		return err
	}

	err := h.quoteService.RespondToQuote(c.Request().Context(), c.Param("revisionId"), input.ResponderId, common.Decision(input.Decision), input.Feedback)
	if err != nil {
		return respondServiceError(c, err)
	}

	if e := c.NoContent(http.StatusOK); e != nil {
		return e
	}

	return nil
}

// /revisions/:revisionId/comments
func (h *quoteRoutesHandler) GetComments(c echo.Context) error {
	var input actorInput
	if err := c.Bind(&input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{"Input data is not formed correctly"}); e != nil {
			return e
		}

		return err
	}

	if err := h.validate.Struct(input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{getAllErrorMessages(err)}); e != nil {
			return e
		}

		return err
	}

	comments, err := h.quoteService.ListComments(c.Request().Context(), c.Param("revisionId"), input.ActorId)
	if err != nil {
		return respondServiceError(c, err)
	}

	if e := c.JSON(http.StatusOK, comments); e != nil {
		return e
	}

	return nil
}
