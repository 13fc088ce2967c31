package preflight

import (
	"context"
	"fmt"
	"strings"

	"tokengate/internal/advisory"
	"tokengate/internal/compliance"
	"tokengate/internal/investor"
	"tokengate/internal/token"
)

// CheckStatus is the outcome of one preflight check.
type CheckStatus string

const (
	CheckPassed  CheckStatus = "passed"
	CheckFailed  CheckStatus = "failed"
	CheckWarning CheckStatus = "warning"
	CheckSkipped CheckStatus = "skipped"
)

// Check names, stable for operator tooling.
const (
	CheckConfiguration         = "configuration_validity"
	CheckRuleSanity            = "compliance_rule_sanity"
	CheckConflictResolution    = "conflict_resolution"
	CheckWhitelistConsistency  = "whitelist_consistency"
	CheckCustodianSetup        = "custodian_setup"
	CheckJurisdictionConflicts = "jurisdiction_conflicts"
)

// checkFunc runs one check against a loaded token. An error return is
// downgraded to a warning by the orchestrator, never a failure.
type checkFunc func(ctx context.Context, tok *token.Token) (CheckStatus, string, error)

func (o *Orchestrator) checkConfiguration(_ context.Context, tok *token.Token) (CheckStatus, string, error) {
	var problems []string
	if tok.Symbol == "" {
		problems = append(problems, "missing symbol")
	}
	if tok.AssetType == "" {
		problems = append(problems, "missing asset type")
	}
	if len(tok.Jurisdictions) == 0 {
		problems = append(problems, "no target jurisdictions")
	}
	if len(problems) > 0 {
		return CheckFailed, strings.Join(problems, "; "), nil
	}
	return CheckPassed, "token configuration complete", nil
}

func (o *Orchestrator) checkRuleSanity(_ context.Context, tok *token.Token) (CheckStatus, string, error) {
	rules := tok.Rules
	var problems []string
	if rules.MinInvestment < 0 {
		problems = append(problems, "negative minimum investment")
	}
	if rules.MaxInvestors < 0 {
		problems = append(problems, "negative investor cap")
	}
	if rules.LockupDays < 0 {
		problems = append(problems, "negative lockup")
	}
	if len(problems) > 0 {
		return CheckFailed, strings.Join(problems, "; "), nil
	}
	if rules.MaxInvestors == 0 {
		return CheckWarning, "no investor cap configured", nil
	}
	return CheckPassed, "compliance rules are sane", nil
}

func (o *Orchestrator) checkConflictResolution(ctx context.Context, tok *token.Token) (CheckStatus, string, error) {
	result := o.resolver.Resolve(ctx, advisory.Input{
		Jurisdictions: tok.Jurisdictions,
		AssetType:     tok.AssetType,
	})
	switch {
	case result.Origin == advisory.OriginStatic:
		// The static policy carries a synthetic conflict marker; an outage
		// is a warning, not a deployment verdict.
		return CheckWarning, "advisory service unavailable, static policy applied", nil
	case result.HasBlockingConflicts():
		return CheckFailed,
			fmt.Sprintf("unresolved jurisdiction conflicts across %v", tok.Jurisdictions), nil
	case result.RequiresManualReview:
		return CheckWarning,
			fmt.Sprintf("resolution requires manual review (confidence %.2f)", result.Confidence), nil
	}
	return CheckPassed,
		fmt.Sprintf("conflicts resolved (confidence %.2f, ruleset %s)", result.Confidence, result.RulesetVersion), nil
}

func (o *Orchestrator) checkWhitelistConsistency(ctx context.Context, tok *token.Token) (CheckStatus, string, error) {
	investors, err := o.investors.ListByToken(ctx, tok.ID)
	if err != nil {
		return "", "", err
	}
	if len(investors) == 0 {
		return CheckWarning, "whitelist is empty", nil
	}

	var problems []string
	if limit := tok.Rules.MaxInvestors; limit > 0 && len(investors) > limit {
		problems = append(problems, fmt.Sprintf("whitelist size %d exceeds cap %d", len(investors), limit))
	}
	for _, inv := range investors {
		if inv.ComplianceStatus != compliance.StatusApproved {
			continue
		}
		if !inv.KYCApproved {
			problems = append(problems, fmt.Sprintf("investor %s approved without KYC", inv.ID))
		}
		if tok.Rules.AccreditedOnly && !accredited(inv) {
			problems = append(problems, fmt.Sprintf("investor %s not accredited", inv.ID))
		}
	}
	if len(problems) > 0 {
		return CheckFailed, strings.Join(problems, "; "), nil
	}
	return CheckPassed, fmt.Sprintf("%d whitelisted investors consistent", len(investors)), nil
}

func accredited(inv *investor.Investor) bool {
	return inv.Accredited || inv.Classification == investor.ClassificationInstitutional
}

func (o *Orchestrator) checkCustodianSetup(_ context.Context, tok *token.Token) (CheckStatus, string, error) {
	if tok.CustodianName == "" {
		return CheckFailed, "no custodian configured", nil
	}
	if !tok.CustodianVerified {
		return CheckWarning, fmt.Sprintf("custodian %s not yet verified", tok.CustodianName), nil
	}
	return CheckPassed, fmt.Sprintf("custodian %s verified", tok.CustodianName), nil
}

func (o *Orchestrator) checkJurisdictionConflicts(ctx context.Context, tok *token.Token) (CheckStatus, string, error) {
	investors, err := o.investors.ListByToken(ctx, tok.ID)
	if err != nil {
		return "", "", err
	}
	allowed := make(map[string]struct{}, len(tok.Jurisdictions))
	for _, j := range tok.Jurisdictions {
		allowed[strings.ToUpper(j)] = struct{}{}
	}
	var outside []string
	for _, inv := range investors {
		if _, ok := allowed[strings.ToUpper(inv.Jurisdiction)]; !ok {
			outside = append(outside, fmt.Sprintf("%s (%s)", inv.ID, inv.Jurisdiction))
		}
	}
	if len(outside) > 0 {
		return CheckFailed,
			fmt.Sprintf("investors outside target jurisdictions: %s", strings.Join(outside, ", ")), nil
	}
	return CheckPassed, "all investors within target jurisdictions", nil
}
