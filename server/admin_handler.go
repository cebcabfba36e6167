package server

import (
	"time"

	"github.com/Digital-Creators-Team/lottery-engine-module/auth"
	"github.com/Digital-Creators-Team/lottery-engine-module/errors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// AdminHandler handles operator HTTP requests. Routes using it sit behind
// the JWT middleware plus the admin wallet check, and the engine verifies
// the caller wallet again on every operation.
type AdminHandler struct {
	app    *App
	logger zerolog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(app *App) *AdminHandler {
	return &AdminHandler{
		app:    app,
		logger: app.logger.With().Str("handler", "admin").Logger(),
	}
}

// SetWinnersRequest is the body for POST /admin/winners.
type SetWinnersRequest struct {
	MainWinner   string   `json:"main_winner" binding:"required"`
	MinorWinners []string `json:"minor_winners" binding:"required"`
}

// TimingRequest is the body for POST /admin/timing. Intervals are seconds,
// the threshold is lamports.
type TimingRequest struct {
	BaseIntervalSeconds int64  `json:"base_interval_seconds" binding:"required"`
	FastIntervalSeconds int64  `json:"fast_interval_seconds" binding:"required"`
	FastModeThreshold   uint64 `json:"fast_mode_threshold" binding:"required"`
}

// AmountRequest is the body for fund and fee endpoints.
type AmountRequest struct {
	Lamports uint64 `json:"lamports" binding:"required"`
}

func (h *AdminHandler) callerWallet(c *gin.Context) (string, bool) {
	wallet, ok := auth.GetWallet(c)
	if !ok {
		Unauthorized(c, errors.New(errors.ErrUnauthorized, "wallet not found in context"))
		return "", false
	}
	return wallet, true
}

// TakeSnapshot godoc
// @Summary      Take a snapshot
// @Description  Runs the snapshot draw for the current round if all gates pass
// @Tags         admin
// @Produce      json
// @Success      200  {object}  BaseResponse{data=lottery.SnapshotResult}
// @Failure      400  {object}  BaseResponse
// @Failure      403  {object}  BaseResponse
// @Security     BearerAuth
// @Router       /lottery/admin/snapshot [post]
func (h *AdminHandler) TakeSnapshot(c *gin.Context) {
	caller, ok := h.callerWallet(c)
	if !ok {
		return
	}

	result, err := h.app.lottery.TakeSnapshot(c.Request.Context(), caller)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Snapshot rejected")
		HandleAppError(c, err)
		return
	}

	h.logger.Info().
		Str("outcome", string(result.Outcome)).
		Uint8("pepe_ball_count", result.PepeBallCount).
		Uint32("total_snapshots", result.TotalSnapshots).
		Msg("Snapshot taken")

	OK(c, result)
}

// SetWinners godoc
// @Summary      Submit winner set
// @Description  Submits off-chain selected winners for the pending draw. The engine recomputes the draw and rejects any mismatch.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request  body      SetWinnersRequest  true  "Winner set"
// @Success      204  "winners accepted"
// @Failure      400  {object}  BaseResponse
// @Failure      403  {object}  BaseResponse
// @Security     BearerAuth
// @Router       /lottery/admin/winners [post]
func (h *AdminHandler) SetWinners(c *gin.Context) {
	caller, ok := h.callerWallet(c)
	if !ok {
		return
	}

	var req SetWinnersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, errors.Wrap(err, errors.ErrInvalidRequest, "Invalid request body"))
		return
	}

	err := h.app.lottery.SetWinners(c.Request.Context(), caller, req.MainWinner, req.MinorWinners)
	if err != nil {
		h.logger.Warn().Err(err).Str("main_winner", req.MainWinner).Msg("Winner set rejected")
		HandleAppError(c, err)
		return
	}

	h.logger.Info().Str("main_winner", req.MainWinner).Msg("Winner set accepted")
	NoContent(c)
}

// Payout godoc
// @Summary      Pay out winners
// @Description  Disburses the jackpot to the verified winner set and resets the round
// @Tags         admin
// @Produce      json
// @Success      200  {object}  BaseResponse{data=lottery.PayoutResult}
// @Failure      400  {object}  BaseResponse
// @Failure      403  {object}  BaseResponse
// @Failure      502  {object}  BaseResponse
// @Security     BearerAuth
// @Router       /lottery/admin/payout [post]
func (h *AdminHandler) Payout(c *gin.Context) {
	caller, ok := h.callerWallet(c)
	if !ok {
		return
	}

	result, err := h.app.lottery.PayoutWinners(c.Request.Context(), caller)
	if err != nil {
		h.logger.Error().Err(err).Msg("Payout failed")
		HandleAppError(c, err)
		return
	}

	h.logger.Info().
		Str("main_winner", result.MainWinner).
		Uint64("grand_prize", result.GrandPrize).
		Uint64("carry_over", result.CarryOver).
		Msg("Payout complete")

	OK(c, result)
}

// ConfigureTiming godoc
// @Summary      Configure snapshot timing
// @Description  Updates base/fast snapshot intervals and the fast mode threshold
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request  body      TimingRequest  true  "Timing parameters"
// @Success      204  "timing updated"
// @Failure      400  {object}  BaseResponse
// @Failure      403  {object}  BaseResponse
// @Security     BearerAuth
// @Router       /lottery/admin/timing [post]
func (h *AdminHandler) ConfigureTiming(c *gin.Context) {
	caller, ok := h.callerWallet(c)
	if !ok {
		return
	}

	var req TimingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, errors.Wrap(err, errors.ErrInvalidRequest, "Invalid request body"))
		return
	}

	err := h.app.lottery.ConfigureTiming(
		c.Request.Context(),
		caller,
		time.Duration(req.BaseIntervalSeconds)*time.Second,
		time.Duration(req.FastIntervalSeconds)*time.Second,
		req.FastModeThreshold,
	)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Timing update rejected")
		HandleAppError(c, err)
		return
	}

	h.logger.Info().
		Int64("base_interval_seconds", req.BaseIntervalSeconds).
		Int64("fast_interval_seconds", req.FastIntervalSeconds).
		Uint64("fast_mode_threshold", req.FastModeThreshold).
		Msg("Snapshot timing updated")

	NoContent(c)
}

// Pause godoc
// @Summary      Pause the lottery
// @Tags         admin
// @Produce      json
// @Success      204  "lottery paused"
// @Failure      403  {object}  BaseResponse
// @Security     BearerAuth
// @Router       /lottery/admin/pause [post]
func (h *AdminHandler) Pause(c *gin.Context) {
	h.setActive(c, false)
}

// Resume godoc
// @Summary      Resume the lottery
// @Tags         admin
// @Produce      json
// @Success      204  "lottery resumed"
// @Failure      403  {object}  BaseResponse
// @Security     BearerAuth
// @Router       /lottery/admin/resume [post]
func (h *AdminHandler) Resume(c *gin.Context) {
	h.setActive(c, true)
}

func (h *AdminHandler) setActive(c *gin.Context, active bool) {
	caller, ok := h.callerWallet(c)
	if !ok {
		return
	}

	if err := h.app.lottery.SetActive(c.Request.Context(), caller, active); err != nil {
		HandleAppError(c, err)
		return
	}

	h.logger.Info().Bool("is_active", active).Msg("Lottery active flag changed")
	NoContent(c)
}

// FundJackpot godoc
// @Summary      Fund the jackpot
// @Description  Credits lamports to the jackpot balance
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request  body      AmountRequest  true  "Amount in lamports"
// @Success      200  {object}  BaseResponse{data=lottery.State}
// @Failure      400  {object}  BaseResponse
// @Failure      403  {object}  BaseResponse
// @Security     BearerAuth
// @Router       /lottery/admin/fund [post]
func (h *AdminHandler) FundJackpot(c *gin.Context) {
	caller, ok := h.callerWallet(c)
	if !ok {
		return
	}

	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, errors.Wrap(err, errors.ErrInvalidRequest, "Invalid request body"))
		return
	}

	state, err := h.app.lottery.FundJackpot(c.Request.Context(), caller, req.Lamports)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	h.logger.Info().Uint64("lamports", req.Lamports).Uint64("jackpot_amount", state.JackpotAmount).Msg("Jackpot funded")
	OK(c, state)
}

// RecordFees godoc
// @Summary      Record collected fees
// @Description  Records creator fees and credits them to the jackpot
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request  body      AmountRequest  true  "Amount in lamports"
// @Success      200  {object}  BaseResponse{data=lottery.State}
// @Failure      400  {object}  BaseResponse
// @Failure      403  {object}  BaseResponse
// @Security     BearerAuth
// @Router       /lottery/admin/fees [post]
func (h *AdminHandler) RecordFees(c *gin.Context) {
	caller, ok := h.callerWallet(c)
	if !ok {
		return
	}

	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, errors.Wrap(err, errors.ErrInvalidRequest, "Invalid request body"))
		return
	}

	state, err := h.app.lottery.RecordFees(c.Request.Context(), caller, req.Lamports)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	h.logger.Info().Uint64("lamports", req.Lamports).Uint64("fees_collected", state.FeesCollected).Msg("Fees recorded")
	OK(c, state)
}
