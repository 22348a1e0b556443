package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/payments-ledger/internal/payment-service/dto"
	"github.com/radieske/payments-ledger/internal/payment-service/engine"
)

// review lê as notas opcionais do admin; corpo vazio é aceito
func (s *Server) review(r *http.Request) (dto.ReviewRequest, error) {
	var req dto.ReviewRequest
	if r.ContentLength == 0 {
		return req, nil
	}
	return req, s.decode(r, &req)
}

func (s *Server) approveDeposit(w http.ResponseWriter, r *http.Request) {
	admin, _ := identityFrom(r.Context())
	req, err := s.review(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.eng.ApproveDeposit(r.Context(), admin.UserID, chi.URLParam(r, "id"), req.Notes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("deposit approved", zap.String("adminId", admin.UserID), zap.String("depositId", res.Request.ID))
	writeJSON(w, http.StatusOK, dto.DepositResponse{
		Message:        "Deposit approved",
		DepositRequest: dto.Deposit(res.Request),
		NewBalance:     dto.Balance(res.NewBalance),
		Transaction:    dto.Transaction(res.Transaction),
	})
}

func (s *Server) rejectDeposit(w http.ResponseWriter, r *http.Request) {
	admin, _ := identityFrom(r.Context())
	req, err := s.review(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.eng.RejectDeposit(r.Context(), admin.UserID, chi.URLParam(r, "id"), req.Notes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("deposit rejected", zap.String("adminId", admin.UserID), zap.String("depositId", res.Request.ID))
	writeJSON(w, http.StatusOK, dto.DepositResponse{Message: "Deposit rejected", DepositRequest: dto.Deposit(res.Request)})
}

func (s *Server) approveWithdrawal(w http.ResponseWriter, r *http.Request) {
	s.settleWithdrawal(w, r, "Withdrawal approved", s.eng.ApproveWithdrawal)
}

func (s *Server) markWithdrawalPaid(w http.ResponseWriter, r *http.Request) {
	s.settleWithdrawal(w, r, "Withdrawal marked as paid", s.eng.MarkWithdrawalPaid)
}

// settleWithdrawal cobre approve e paid, que não mexem no saldo
func (s *Server) settleWithdrawal(w http.ResponseWriter, r *http.Request, msg string,
	op func(ctx context.Context, adminID, id, notes string) (engine.WithdrawalResult, error)) {
	admin, _ := identityFrom(r.Context())
	req, err := s.review(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := op(r.Context(), admin.UserID, chi.URLParam(r, "id"), req.Notes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("withdrawal updated",
		zap.String("adminId", admin.UserID),
		zap.String("withdrawalId", res.Request.ID),
		zap.String("status", string(res.Request.Status)))
	writeJSON(w, http.StatusOK, dto.WithdrawalResponse{
		Message:           msg,
		WithdrawalRequest: dto.Withdrawal(res.Request),
		Transaction:       dto.Transaction(res.Transaction),
	})
}

func (s *Server) rejectWithdrawal(w http.ResponseWriter, r *http.Request) {
	admin, _ := identityFrom(r.Context())
	var req dto.RejectRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.eng.RejectWithdrawal(r.Context(), admin.UserID, chi.URLParam(r, "id"), req.Reason, req.Notes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("withdrawal rejected", zap.String("adminId", admin.UserID), zap.String("withdrawalId", res.Request.ID))
	writeJSON(w, http.StatusOK, dto.WithdrawalResponse{
		Message:           "Withdrawal rejected and balance restored",
		WithdrawalRequest: dto.Withdrawal(res.Request),
		NewBalance:        dto.BalanceValue(res.NewBalance),
		Transaction:       dto.Transaction(res.Transaction),
	})
}

func (s *Server) listIbans(w http.ResponseWriter, r *http.Request) {
	list, err := s.eng.AllIbans(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]dto.IbanView, 0, len(list))
	for _, i := range list {
		out = append(out, dto.Iban(i))
	}
	writeJSON(w, http.StatusOK, dto.IbanListResponse{Ibans: out})
}

func (s *Server) addIban(w http.ResponseWriter, r *http.Request) {
	admin, _ := identityFrom(r.Context())
	var req dto.AddIbanRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	i, err := s.eng.AddIban(r.Context(), admin.UserID, req.BankName, req.AccountHolder, req.IBANNumber)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.IbanResponse{Message: "IBAN added", Iban: dto.Iban(i)})
}

func (s *Server) setIbanActive(w http.ResponseWriter, r *http.Request) {
	var req dto.SetIbanActiveRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	i, err := s.eng.SetIbanActive(r.Context(), chi.URLParam(r, "id"), *req.IsActive)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.IbanResponse{Iban: dto.Iban(i)})
}
