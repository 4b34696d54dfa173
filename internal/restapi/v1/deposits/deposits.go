package v1deposits

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/binarydesk/deposit-service/internal/apierrors"
	"github.com/binarydesk/deposit-service/internal/entities"
	"github.com/binarydesk/deposit-service/internal/interaction"
	"github.com/binarydesk/deposit-service/internal/logging"
	"github.com/binarydesk/deposit-service/internal/restapi/common"
)

type depositHandler struct {
	interactor interaction.Interactor
}

func Create(router chi.Router, i interaction.Interactor) {
	handler := depositHandler{
		interactor: i,
	}

	router.Post("/deposits", common.CreateHandler[CreateDepositRequest, Deposit](
		handler.createDeposit,
		createDepositRequestHandler,
		depositResponseHandler(http.StatusCreated),
	))

	router.Get("/deposits", common.CreateHandler[GetDepositsRequest, []Deposit](
		handler.getDeposits,
		getDepositsRequestHandler,
		depositListResponseHandler,
	))

	router.Get("/deposits/{id}", common.CreateHandler[GetDepositRequest, Deposit](
		handler.getDeposit,
		getDepositRequestHandler,
		depositResponseHandler(http.StatusOK),
	))

	router.Put("/deposits/{id}/status", common.CreateHandler[UpdateStatusRequest, Deposit](
		handler.updateStatus,
		updateStatusRequestHandler,
		depositResponseHandler(http.StatusOK),
	))
}

func (h *depositHandler) createDeposit(ctx context.Context, req *CreateDepositRequest, logger logging.Logger) (*Deposit, error) {
	deposit, err := h.interactor.CreateDeposit(ctx, req.Amount)
	if err != nil {
		return nil, err
	}

	dto := depositFrom(deposit)
	return &dto, nil
}

func (h *depositHandler) getDeposits(ctx context.Context, req *GetDepositsRequest, logger logging.Logger) (*[]Deposit, error) {
	deposits, err := h.interactor.GetDeposits(ctx, entities.DepositQuery{
		UserID: req.UserID,
		Status: req.Status,
	})
	if err != nil {
		return nil, err
	}

	dtos := depositsFrom(deposits)
	return &dtos, nil
}

func (h *depositHandler) getDeposit(ctx context.Context, req *GetDepositRequest, logger logging.Logger) (*Deposit, error) {
	deposit, err := h.interactor.GetDeposit(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	dto := depositFrom(deposit)
	return &dto, nil
}

func (h *depositHandler) updateStatus(ctx context.Context, req *UpdateStatusRequest, logger logging.Logger) (*Deposit, error) {
	deposit, err := h.interactor.ReviewDeposit(ctx, req.ID, req.Status, req.Comment)
	if err != nil {
		return nil, err
	}

	dto := depositFrom(deposit)
	return &dto, nil
}

func createDepositRequestHandler(r *http.Request) (*CreateDepositRequest, error) {
	req := &CreateDepositRequest{}
	if err := decodeBody(r, req); err != nil {
		return nil, err
	}
	return req, nil
}

func getDepositsRequestHandler(r *http.Request) (*GetDepositsRequest, error) {
	query := r.URL.Query()
	return &GetDepositsRequest{
		UserID: query.Get("user_id"),
		Status: entities.DepositStatus(query.Get("status")),
	}, nil
}

func getDepositRequestHandler(r *http.Request) (*GetDepositRequest, error) {
	id, err := depositID(r)
	if err != nil {
		return nil, err
	}
	return &GetDepositRequest{ID: id}, nil
}

func updateStatusRequestHandler(r *http.Request) (*UpdateStatusRequest, error) {
	id, err := depositID(r)
	if err != nil {
		return nil, err
	}

	req := &UpdateStatusRequest{}
	if err := decodeBody(r, req); err != nil {
		return nil, err
	}
	req.ID = id

	return req, nil
}

func depositID(r *http.Request) (uint, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, apierrors.NewBadRequest("invalid deposit id " + raw)
	}
	return uint(id), nil
}

const maxBodyBytes = 4096

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apierrors.NewBadRequest("invalid request body: " + err.Error())
	}
	return nil
}

func depositResponseHandler(status int) common.ResponseHandler[Deposit] {
	return func(ctx context.Context, res *Deposit, w http.ResponseWriter) error {
		common.EncodeWithStatus(w, status, res, logging.LoggerFromContext(ctx))
		return nil
	}
}

func depositListResponseHandler(ctx context.Context, res *[]Deposit, w http.ResponseWriter) error {
	common.EncodeWithStatus(w, http.StatusOK, common.NewResponse(res), logging.LoggerFromContext(ctx))
	return nil
}
