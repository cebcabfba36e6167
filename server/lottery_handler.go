package server

import (
	"strconv"

	"github.com/Digital-Creators-Team/lottery-engine-module/auth"
	"github.com/Digital-Creators-Team/lottery-engine-module/errors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// LotteryHandler handles participant-facing HTTP requests
//
// Flow: HTTP Request -> lotteryRoutes -> LotteryHandler -> LotteryService -> Engine
//
// Responsibilities:
// - Extract wallet info from JWT token
// - Validate request parameters
// - Call LotteryService for business logic
// - Format and return HTTP responses
//
// Round mechanics live in the lottery package, not here.
type LotteryHandler struct {
	app    *App
	svc    *LotteryService
	logger zerolog.Logger
}

// NewLotteryHandler creates a new lottery handler
func NewLotteryHandler(app *App, svc *LotteryService) *LotteryHandler {
	return &LotteryHandler{
		app:    app,
		svc:    svc,
		logger: app.logger.With().Str("handler", "lottery").Logger(),
	}
}

// extractWallet extracts the caller wallet from gin context
func (h *LotteryHandler) extractWallet(c *gin.Context) (string, error) {
	wallet, ok := auth.GetWallet(c)
	if !ok {
		return "", errors.New(errors.ErrUnauthorized, "wallet not found in context")
	}
	return wallet, nil
}

// GetState godoc
// @Summary      Get round state
// @Description  Returns the public view of the running round
// @Tags         lottery
// @Produce      json
// @Success      200  {object}  BaseResponse{data=StateResponse}
// @Failure      500  {object}  BaseResponse
// @Router       /lottery/state [get]
func (h *LotteryHandler) GetState(c *gin.Context) {
	ctx := c.Request.Context()

	state, err := h.svc.State(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to load round state")
		HandleAppError(c, err)
		return
	}

	OK(c, state)
}

// Enter godoc
// @Summary      Enter the running round
// @Description  Registers the caller wallet's first qualifying purchase. Repeat purchases go through /lottery/update-entry.
// @Tags         lottery
// @Accept       json
// @Produce      json
// @Param        request  body      EnterRequest  true  "Purchase value in USD"
// @Success      200  {object}  BaseResponse{data=ParticipantResponse}
// @Failure      400  {object}  BaseResponse
// @Failure      401  {object}  BaseResponse
// @Failure      409  {object}  BaseResponse
// @Security     BearerAuth
// @Router       /lottery/enter [post]
func (h *LotteryHandler) Enter(c *gin.Context) {
	ctx := c.Request.Context()

	wallet, err := h.extractWallet(c)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to extract wallet")
		Unauthorized(c, errors.New(errors.ErrUnauthorized, "Invalid or missing authentication token"))
		return
	}

	var req EnterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, errors.Wrap(err, errors.ErrInvalidRequest, "Invalid request body"))
		return
	}

	participant, err := h.svc.Enter(ctx, wallet, req.USDValue)
	if err != nil {
		h.logger.Warn().Err(err).Str("wallet", wallet).Msg("Entry rejected")
		HandleAppError(c, err)
		return
	}

	h.logger.Info().
		Str("wallet", wallet).
		Uint32("ticket_count", participant.TicketCount).
		Msg("Entry accepted")

	OK(c, participant)
}

// UpdateEntry godoc
// @Summary      Record a repeat purchase
// @Description  Accumulates a further purchase onto the caller's existing ledger row
// @Tags         lottery
// @Accept       json
// @Produce      json
// @Param        request  body      EnterRequest  true  "Purchase value in USD"
// @Success      200  {object}  BaseResponse{data=ParticipantResponse}
// @Failure      400  {object}  BaseResponse
// @Failure      401  {object}  BaseResponse
// @Failure      404  {object}  BaseResponse
// @Security     BearerAuth
// @Router       /lottery/update-entry [post]
func (h *LotteryHandler) UpdateEntry(c *gin.Context) {
	ctx := c.Request.Context()

	wallet, err := h.extractWallet(c)
	if err != nil {
		Unauthorized(c, errors.New(errors.ErrUnauthorized, "Invalid or missing authentication token"))
		return
	}

	var req EnterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, errors.Wrap(err, errors.ErrInvalidRequest, "Invalid request body"))
		return
	}

	participant, err := h.svc.UpdateEntry(ctx, wallet, req.USDValue)
	if err != nil {
		h.logger.Warn().Err(err).Str("wallet", wallet).Msg("Entry update rejected")
		HandleAppError(c, err)
		return
	}

	OK(c, participant)
}

// GetMyEntry godoc
// @Summary      Get own entry
// @Description  Returns the caller's ledger row for the running round
// @Tags         lottery
// @Produce      json
// @Success      200  {object}  BaseResponse{data=ParticipantResponse}
// @Failure      404  {object}  BaseResponse
// @Security     BearerAuth
// @Router       /lottery/participants/me [get]
func (h *LotteryHandler) GetMyEntry(c *gin.Context) {
	ctx := c.Request.Context()

	wallet, err := h.extractWallet(c)
	if err != nil {
		Unauthorized(c, errors.New(errors.ErrUnauthorized, "Invalid or missing authentication token"))
		return
	}

	participant, err := h.svc.Participant(ctx, wallet)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	OK(c, participant)
}

// ListParticipants godoc
// @Summary      List participants
// @Description  Returns all ledger rows for the running round in canonical order
// @Tags         lottery
// @Produce      json
// @Success      200  {object}  BaseResponse{data=[]ParticipantResponse}
// @Failure      500  {object}  BaseResponse
// @Security     BearerAuth
// @Router       /lottery/participants [get]
func (h *LotteryHandler) ListParticipants(c *gin.Context) {
	ctx := c.Request.Context()

	participants, err := h.svc.Participants(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list participants")
		HandleAppError(c, err)
		return
	}

	OK(c, participants)
}

// GetHistory godoc
// @Summary      Get round history
// @Description  Returns recent finished rounds, newest first
// @Tags         lottery
// @Produce      json
// @Param        limit  query     int  false  "Max rounds to return (default 20, max 100)"
// @Success      200  {object}  BaseResponse{data=[]RoundHistoryResponse}
// @Failure      500  {object}  BaseResponse
// @Router       /lottery/history [get]
func (h *LotteryHandler) GetHistory(c *gin.Context) {
	ctx := c.Request.Context()

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			BadRequest(c, errors.New(errors.ErrInvalidRequest, "Invalid limit parameter"))
			return
		}
		limit = parsed
	}
	if limit > 100 {
		limit = 100
	}

	rounds, err := h.svc.History(ctx, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to load round history")
		HandleAppError(c, err)
		return
	}

	OK(c, rounds)
}
