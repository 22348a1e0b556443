package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/payments-ledger/internal/payment-service/dto"
	"github.com/radieske/payments-ledger/internal/payment-service/engine"
)

var depositInstructions = []string{
	"Lütfen yatırmak istediğiniz tutarı yukarıdaki IBAN numarasına havale/EFT yapın.",
	"İşlemi tamamladıktan sonra yatırım talebi oluşturun.",
	"Talebiniz onaylandıktan sonra bakiyenize yansır.",
}

// ibanInfo devolve a conta padrão da empresa e as contas ativas cadastradas
func (s *Server) ibanInfo(w http.ResponseWriter, r *http.Request) {
	list, err := s.eng.ActiveIbans(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ibans := make([]dto.PublicIban, 0, len(list))
	for _, i := range list {
		ibans = append(ibans, dto.PublicIban{BankName: i.BankName, AccountHolder: i.AccountHolder, IBANNumber: i.IBANNumber})
	}

	var branch *string
	if s.company.BranchCode != "" {
		branch = &s.company.BranchCode
	}
	lim := s.eng.Limits().Deposit
	writeJSON(w, http.StatusOK, dto.IbanInfoResponse{
		IbanInfo: dto.IbanInfo{
			IBAN:          s.company.IBAN,
			BankName:      s.company.BankName,
			AccountHolder: s.company.AccountHolder,
			BranchCode:    branch,
			Instructions:  depositInstructions,
			MinAmount:     lim.Min.InexactFloat64(),
			MaxAmount:     lim.Max.InexactFloat64(),
		},
		Ibans: ibans,
	})
}

// depositMethods é um catálogo fixo; só IBAN usa os limites configurados
func (s *Server) depositMethods(w http.ResponseWriter, r *http.Request) {
	lim := s.eng.Limits().Deposit
	writeJSON(w, http.StatusOK, dto.DepositMethodsResponse{Methods: []dto.DepositMethod{
		{
			ID: "iban", Name: "Banka Havalesi / EFT", NameEn: "Bank Transfer / EFT",
			Min: lim.Min.InexactFloat64(), Max: lim.Max.InexactFloat64(), Available: true,
			Image: "https://cdn-icons-png.flaticon.com/512/2830/2830284.png",
		},
		{
			ID: "papara", Name: "Papara", NameEn: "Papara",
			Min: 50, Max: 25000, Available: true,
			Image: "https://upload.wikimedia.org/wikipedia/commons/7/7a/Papara_logo.png",
		},
		{
			ID: "credit_card", Name: "Kredi Kartı", NameEn: "Credit Card",
			Min: 75, Max: 10000, Available: true,
			Image: "https://cdn-icons-png.flaticon.com/512/349/349221.png",
		},
	}})
}

func (s *Server) submitDeposit(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	var req dto.DepositRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.eng.SubmitDeposit(r.Context(), engine.DepositInput{
		UserID:               id.UserID,
		Amount:               req.Amount,
		Description:          req.Description,
		TransactionReference: req.Reference(),
		SlipImage:            req.Slip(),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	msg := "Deposit request submitted. It will be credited after approval."
	if res.NewBalance != nil {
		msg = "Deposit approved and added to balance (development mode)"
	}
	s.log.Info("deposit submitted",
		zap.String("userId", id.UserID),
		zap.String("depositId", res.Request.ID),
		zap.String("status", string(res.Request.Status)))
	writeJSON(w, http.StatusCreated, dto.DepositResponse{
		Message:        msg,
		DepositRequest: dto.Deposit(res.Request),
		NewBalance:     dto.Balance(res.NewBalance),
		Transaction:    dto.Transaction(res.Transaction),
	})
}

func (s *Server) listDeposits(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	p, err := s.eng.ListDeposits(r.Context(), listQuery(r, id.UserID))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	items := make([]dto.DepositView, 0, len(p.Items))
	for _, d := range p.Items {
		items = append(items, dto.Deposit(d))
	}
	writeJSON(w, http.StatusOK, dto.DepositListResponse{
		DepositRequests: items,
		Total:           p.Total,
		TotalPages:      p.TotalPages,
		CurrentPage:     p.CurrentPage,
	})
}

func (s *Server) submitWithdrawal(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	var req dto.WithdrawalRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.eng.SubmitWithdrawal(r.Context(), engine.WithdrawalInput{
		UserID:      id.UserID,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("withdrawal requested",
		zap.String("userId", id.UserID),
		zap.String("withdrawalId", res.Request.ID),
		zap.String("amount", dto.BalanceValue(res.Request.Amount)))
	writeJSON(w, http.StatusCreated, dto.WithdrawalResponse{
		Message:           "Çekim talebi oluşturuldu. Admin onayından sonra IBAN'ınıza gönderilecektir.",
		WithdrawalRequest: dto.Withdrawal(res.Request),
		NewBalance:        dto.BalanceValue(res.NewBalance),
		Transaction:       dto.Transaction(res.Transaction),
	})
}

func (s *Server) listWithdrawals(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	p, err := s.eng.ListWithdrawals(r.Context(), listQuery(r, id.UserID))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	items := make([]dto.WithdrawalView, 0, len(p.Items))
	for _, wd := range p.Items {
		items = append(items, dto.Withdrawal(wd))
	}
	writeJSON(w, http.StatusOK, dto.WithdrawalListResponse{
		WithdrawalRequests: items,
		Total:              p.Total,
		TotalPages:         p.TotalPages,
		CurrentPage:        p.CurrentPage,
	})
}

func (s *Server) cancelWithdrawal(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	res, err := s.eng.CancelWithdrawal(r.Context(), id.UserID, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.WithdrawalResponse{
		Message:           "Çekim talebi iptal edildi ve bakiye geri yüklendi",
		WithdrawalRequest: dto.Withdrawal(res.Request),
		NewBalance:        dto.BalanceValue(res.NewBalance),
	})
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	var req dto.ProfileRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.eng.UpdateProfile(r.Context(), id.UserID, req.Update())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ProfileResponse{Message: "Profil güncellendi", User: dto.User(u)})
}

func listQuery(r *http.Request, userID string) engine.ListQuery {
	return engine.ListQuery{
		UserID: userID,
		Status: r.URL.Query().Get("status"),
		Page:   queryInt(r, "page"),
		Limit:  queryInt(r, "limit"),
	}
}
