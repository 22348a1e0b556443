package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/radieske/payments-ledger/internal/payment-service/dto"
	"github.com/radieske/payments-ledger/internal/payment-service/engine"
	"github.com/radieske/payments-ledger/internal/payment-service/ledger"
)

// Company é a conta recebedora padrão mostrada em /iban-info
type Company struct {
	IBAN          string
	BankName      string
	AccountHolder string
	BranchCode    string
}

// Server expõe o ledger de pagamentos via REST
type Server struct {
	log      *zap.Logger
	eng      *engine.Engine
	company  Company
	secret   []byte
	validate *dto.Validator
}

func NewServer(log *zap.Logger, eng *engine.Engine, company Company, jwtSecret string) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{log: log, eng: eng, company: company, secret: []byte(jwtSecret), validate: dto.NewValidator()}
}

// Router monta as rotas de usuário e de admin; tudo exige JWT
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors)
	r.Use(s.accessLog)

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(s.secret))

		r.Get("/iban-info", s.ibanInfo)
		r.Get("/deposit-methods", s.depositMethods)
		r.Post("/iban-deposit", s.submitDeposit)
		r.Get("/deposit-requests", s.listDeposits)
		r.Post("/withdrawal/request", s.submitWithdrawal)
		r.Get("/withdrawal-requests", s.listWithdrawals)
		r.Post("/withdrawal/{id}/cancel", s.cancelWithdrawal)
		r.Put("/profile", s.updateProfile)

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Post("/deposits/{id}/approve", s.approveDeposit)
			r.Post("/deposits/{id}/reject", s.rejectDeposit)
			r.Post("/withdrawals/{id}/approve", s.approveWithdrawal)
			r.Post("/withdrawals/{id}/reject", s.rejectWithdrawal)
			r.Post("/withdrawals/{id}/paid", s.markWithdrawalPaid)
			r.Get("/ibans", s.listIbans)
			r.Post("/ibans", s.addIban)
			r.Patch("/ibans/{id}", s.setIbanActive)
		})
	})
	return r
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("requestId", middleware.GetReqID(r.Context())))
	})
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Message: msg})
}

// statusFor mapeia a taxonomia do ledger para HTTP
func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrValidation),
		errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError nunca expõe a causa de falhas de storage
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("requestId", middleware.GetReqID(r.Context())),
			zap.Error(err))
	}
	writeMessage(w, status, ledger.PublicMessage(err))
}

// decode lê o corpo JSON e aplica as tags de validação
func (s *Server) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return ledger.Validation("invalid JSON body")
	}
	return s.validate.Check(v)
}

func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}
