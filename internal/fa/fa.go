// Package fa deconstructs a financial address string into its
// type-specific fields, picking a regex strategy by FA prefix the way
// the original resolver's deconstruct_fa dispatch table does.
package fa

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	PrefixBankAccount  = "BANK_ACCOUNT"
	PrefixMobileWallet = "MOBILE_WALLET"
	PrefixEmailWallet  = "EMAIL_WALLET"
)

// Strategies holds the three compiled regexes, one per FA prefix.
type Strategies struct {
	bankAccount  *regexp.Regexp
	mobileWallet *regexp.Regexp
	emailWallet  *regexp.Regexp
}

// Compile builds Strategies from the three regex source strings held
// in config, failing fast on a malformed pattern since these are fixed
// at startup and never change at runtime.
func Compile(bankAccountRe, mobileWalletRe, emailWalletRe string) (*Strategies, error) {
	s := &Strategies{}
	var err error
	if s.bankAccount, err = regexp.Compile(bankAccountRe); err != nil {
		return nil, err
	}
	if s.mobileWallet, err = regexp.Compile(mobileWalletRe); err != nil {
		return nil, err
	}
	if s.emailWallet, err = regexp.Compile(emailWalletRe); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Strategies) strategyFor(fa string) (*regexp.Regexp, string) {
	switch {
	case strings.HasPrefix(fa, PrefixBankAccount):
		return s.bankAccount, PrefixBankAccount
	case strings.HasPrefix(fa, PrefixMobileWallet):
		return s.mobileWallet, PrefixMobileWallet
	case strings.HasPrefix(fa, PrefixEmailWallet):
		return s.emailWallet, PrefixEmailWallet
	default:
		return nil, ""
	}
}

// Deconstruct extracts named capture groups from fa using the strategy
// selected by its prefix. An unknown prefix yields an empty map so the
// caller inserts a row with null type-specific fields.
func (s *Strategies) Deconstruct(fa string) map[string]string {
	re, prefix := s.strategyFor(fa)
	if re == nil {
		log.Debug().Str("fa", fa).Msg("no deconstruct strategy for FA prefix")
		return map[string]string{}
	}

	m := re.FindStringSubmatch(fa)
	if m == nil {
		log.Warn().Str("fa", fa).Str("prefix", prefix).Msg("FA did not match its prefix's strategy")
		return map[string]string{}
	}

	out := map[string]string{"fa_type": prefix}
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		out[name] = m[i]
	}
	return out
}
