package handlers

import (
	"net/http"
	"strings"

	"lynkledger/internal/config"
	"lynkledger/internal/middleware"
	"lynkledger/internal/models"
	"lynkledger/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handler struct {
	cfg       config.Config
	users     UserService
	accounts  AccountService
	ledger    LedgerService
	invoices  InvoiceService
	recurring RecurringService
	assets    AssetService
	budgets   BudgetService
	taxRates  TaxRateService
	reports   ReportService
	audit     AuditStore
	hub       *websocket.Hub
}

func New(cfg config.Config, svc Services, hub *websocket.Hub) *Handler {
	return &Handler{
		cfg:       cfg,
		users:     svc.Users,
		accounts:  svc.Accounts,
		ledger:    svc.Ledger,
		invoices:  svc.Invoices,
		recurring: svc.Recurring,
		assets:    svc.Assets,
		budgets:   svc.Budgets,
		taxRates:  svc.TaxRates,
		reports:   svc.Reports,
		audit:     svc.Audit,
		hub:       hub,
	}
}

func allowedOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(h.cfg.AllowedOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticated := middleware.Auth(h.cfg.JWTSecret)
	writer := middleware.RequireWriter()

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(authenticated).Get("/me", h.Me)
	})

	router.Group(func(r chi.Router) {
		r.Use(authenticated)

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.ListAccounts)
			r.Get("/self-check", h.SelfCheck)
			r.With(writer).Post("/", h.CreateAccount)
			r.Get("/{id}", h.GetAccount)
			r.With(writer).Delete("/{id}", h.DeleteAccount)
			r.With(writer).Put("/{id}/parent", h.SetAccountParent)
			r.With(writer).Post("/{id}/archive", h.ArchiveAccount)
			r.Get("/{id}/balance", h.GetBalance)
			r.Get("/{id}/entries", h.AccountEntries)
			r.With(writer).Post("/{id}/reconcile", h.ReconcileAccount)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.ListTransactions)
			r.With(writer).Post("/", h.CreateTransaction)
			r.Get("/{id}", h.GetTransaction)
			r.With(writer).Put("/{id}/entries", h.ReplaceEntries)
			r.With(writer).Post("/{id}/submit", h.SubmitTransaction)
			r.With(writer).Post("/{id}/approve", h.ApproveTransaction)
			r.With(writer).Post("/{id}/post", h.PostTransaction)
			r.With(writer).Post("/{id}/void", h.VoidTransaction)
			r.With(writer).Post("/{id}/reverse", h.ReverseTransaction)
			r.With(writer).Post("/{id}/reconcile", h.ReconcileTransaction)
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", h.ListInvoices)
			r.With(writer).Post("/", h.CreateInvoice)
			r.With(writer).Post("/overdue", h.MarkOverdue)
			r.Get("/{id}", h.GetInvoice)
			r.With(writer).Put("/{id}/items", h.UpdateInvoiceItems)
			r.With(writer).Post("/{id}/send", h.SendInvoice)
			r.With(writer).Post("/{id}/cancel", h.CancelInvoice)
			r.With(writer).Post("/{id}/void", h.VoidInvoice)
			r.With(writer).Post("/{id}/payments", h.RecordPayment)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Use(writer)
			r.Post("/{id}/void", h.VoidPayment)
			r.Post("/{id}/status", h.SetPaymentStatus)
		})

		r.Route("/recurring-invoices", func(r chi.Router) {
			r.Get("/", h.ListRecurring)
			r.With(writer).Post("/", h.CreateRecurring)
			r.With(writer).Post("/run", h.RunRecurring)
			r.Get("/{id}", h.GetRecurring)
			r.With(writer).Post("/{id}/generate", h.GenerateRecurring)
			r.Get("/{id}/preview", h.PreviewRecurring)
		})

		r.Route("/assets", func(r chi.Router) {
			r.Get("/", h.ListAssets)
			r.With(writer).Post("/", h.CreateAsset)
			r.Get("/{id}", h.GetAsset)
			r.Get("/{id}/depreciation", h.AssetDepreciation)
			r.With(writer).Post("/{id}/recalculate", h.RecalculateAsset)
			r.With(writer).Post("/{id}/dispose", h.DisposeAsset)
		})

		r.Route("/budgets", func(r chi.Router) {
			r.Get("/", h.ListBudgets)
			r.With(writer).Post("/", h.CreateBudget)
			r.Get("/{id}", h.GetBudget)
			r.Get("/{id}/performance", h.BudgetPerformance)
		})

		r.Route("/tax-rates", func(r chi.Router) {
			r.Get("/", h.ListTaxRates)
			r.With(writer).Post("/", h.CreateTaxRate)
			r.With(writer).Delete("/{id}", h.DeleteTaxRate)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/trial-balance", h.TrialBalance)
			r.Get("/balance-sheet", h.BalanceSheet)
			r.Get("/income-statement", h.IncomeStatement)
			r.Get("/cash-flow", h.CashFlow)
			r.Get("/aged-receivables", h.AgedReceivables)
			r.Get("/aged-payables", h.AgedPayables)
			r.Get("/budget-vs-actual", h.BudgetVsActual)
			r.Get("/tax-summary", h.TaxSummary)
			r.Get("/financial-statements", h.FinancialStatements)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.ListUsers)
			r.With(middleware.RequireRole(models.RoleOwner, models.RoleAdmin)).Post("/", h.AddUser)
			r.With(middleware.RequireRole(models.RoleOwner)).Put("/{id}/role", h.SetUserRole)
		})

		r.With(middleware.RequireRole(models.RoleOwner, models.RoleAdmin)).Get("/audit", h.ListAuditLogs)
		r.Get("/ws/balances", h.WSBalances)
	})

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
