package usecase

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/phenrril/rodada/internal/domain"
)

type SettingsUC struct {
	Store domain.Store
	Feed  domain.ChangeFeed
}

func (uc *SettingsUC) Get(ctx context.Context) (domain.Settings, error) {
	return uc.Store.LoadSettings(ctx)
}

// SettingsInput is a partial update; nil fields keep their value.
type SettingsInput struct {
	AllowBuyers       *bool   `json:"allow_buyers"`
	AllowSellers      *bool   `json:"allow_sellers"`
	AllowNegotiations *bool   `json:"allow_negotiations"`
	RelayURL          *string `json:"relay_url"`
}

func (uc *SettingsUC) Update(ctx context.Context, in SettingsInput) (domain.Settings, error) {
	st, err := uc.Store.LoadSettings(ctx)
	if err != nil {
		return st, err
	}
	if in.AllowBuyers != nil {
		st.AllowBuyers = *in.AllowBuyers
	}
	if in.AllowSellers != nil {
		st.AllowSellers = *in.AllowSellers
	}
	if in.AllowNegotiations != nil {
		st.AllowNegotiations = *in.AllowNegotiations
	}
	if in.RelayURL != nil {
		u := strings.TrimSpace(*in.RelayURL)
		if u != "" {
			parsed, err := url.Parse(u)
			if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
				return st, fmt.Errorf("%w: URL da planilha", domain.ErrInvalidInput)
			}
		}
		st.RelayURL = u
	}
	if err := uc.Store.SaveSettings(ctx, &st); err != nil {
		return st, err
	}
	publish(ctx, uc.Feed, domain.ChangeSettingsSaved, "")
	return st, nil
}
