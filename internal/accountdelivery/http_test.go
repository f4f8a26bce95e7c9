package accountdelivery

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/go-petr/lynx-wire/internal/domain"
	"github.com/go-petr/lynx-wire/pkg/currencypkg"
	"github.com/go-petr/lynx-wire/pkg/errorspkg"
	"github.com/go-petr/lynx-wire/pkg/randompkg"
	"github.com/go-petr/lynx-wire/pkg/web"
	"github.com/golang/mock/gomock"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func randomAccount() domain.Account {
	at := time.Date(2024, 2, 3, 4, 5, 6, 700, time.FixedZone("EST", -5*3600))
	balance := randompkg.MoneyAmountBetween(100, 1000)

	return domain.Account{
		ID:        randompkg.Digits(3) + "-" + randompkg.Digits(5) + "-" + randompkg.Digits(7),
		Holder:    randompkg.Owner(),
		Currency:  currencypkg.CAD,
		Balance:   balance.Sub(decimal.NewFromInt(10)),
		CreatedAt: at,
		Transactions: []domain.AccountEntry{
			{
				Type:         domain.EntryOpening,
				Amount:       balance,
				BalanceAfter: balance,
				Description:  "Opening balance",
				Timestamp:    at,
			},
			{
				Type:         domain.EntryDebit,
				Amount:       decimal.NewFromInt(-10),
				BalanceAfter: balance.Sub(decimal.NewFromInt(10)),
				TransferID:   "t-1",
				Description:  "Wire transfer to Jane Smith",
				Timestamp:    at,
			},
		},
	}
}

func TestList(t *testing.T) {
	account1 := randomAccount()
	account2 := randomAccount()

	testCases := []struct {
		name           string
		buildStubs     func(accountService *MockService)
		wantStatusCode int
		wantError      string
		wantBody       listResponse
	}{
		{
			name: "OK",
			buildStubs: func(accountService *MockService) {
				accountService.EXPECT().
					List(gomock.Any()).
					Times(1).
					Return([]domain.Account{account1, account2}, nil)
			},
			wantStatusCode: http.StatusOK,
			wantBody: listResponse{
				Accounts: []AccountResponse{NewAccountResponse(account1), NewAccountResponse(account2)},
				Count:    2,
			},
		},
		{
			name: "Empty",
			buildStubs: func(accountService *MockService) {
				accountService.EXPECT().
					List(gomock.Any()).
					Times(1).
					Return(nil, nil)
			},
			wantStatusCode: http.StatusOK,
			wantBody: listResponse{
				Accounts: []AccountResponse{},
			},
		},
		{
			name: "InternalServerError",
			buildStubs: func(accountService *MockService) {
				accountService.EXPECT().
					List(gomock.Any()).
					Times(1).
					Return(nil, errorspkg.ErrInternal)
			},
			wantStatusCode: http.StatusInternalServerError,
			wantError:      errorspkg.ErrInternal.Error(),
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// Initialize mocks
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			accountService := NewMockService(ctrl)
			accountHandler := NewHandler(accountService)

			server := gin.New()
			server.GET("/bank_accounts", accountHandler.List)

			tc.buildStubs(accountService)

			req, err := http.NewRequest(http.MethodGet, "/bank_accounts", nil)
			if err != nil {
				t.Fatalf("Creating request error: %v", err)
			}

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, req)

			// Test response
			if got := recorder.Code; got != tc.wantStatusCode {
				t.Errorf("Status code: got %v, want %v", got, tc.wantStatusCode)
			}

			if tc.wantStatusCode != http.StatusOK {
				var res web.JSONError
				if err := json.NewDecoder(recorder.Body).Decode(&res); err != nil {
					t.Errorf("Decoding response body error: %v", err)
				}

				if res.Error != tc.wantError {
					t.Errorf(`resp.Error=%q, want %q`, res.Error, tc.wantError)
				}

				return
			}

			var got listResponse
			if err := json.NewDecoder(recorder.Body).Decode(&got); err != nil {
				t.Errorf("Decoding response body error: %v", err)
			}

			if diff := cmp.Diff(tc.wantBody, got); diff != "" {
				t.Errorf("response mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewAccountResponse(t *testing.T) {
	account := randomAccount()

	got := NewAccountResponse(account)

	if got.Balance != account.Balance.StringFixed(2) {
		t.Errorf("Balance=%q, want %q", got.Balance, account.Balance.StringFixed(2))
	}

	if want := "-10.00"; got.Transactions[1].Amount != want {
		t.Errorf("Transactions[1].Amount=%q, want %q", got.Transactions[1].Amount, want)
	}

	if want := "2024-02-03T09:05:06.0000007Z"; got.Transactions[0].Timestamp != want {
		t.Errorf("Transactions[0].Timestamp=%q, want %q", got.Transactions[0].Timestamp, want)
	}
}
