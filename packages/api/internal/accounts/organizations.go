package accounts

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
)

type organizationsAPI interface {
	ListParents(ctx context.Context, params *organizations.ListParentsInput, optFns ...func(*organizations.Options)) (*organizations.ListParentsOutput, error)
}

// OrganizationsPlacement reads account placement from AWS Organizations.
type OrganizationsPlacement struct {
	client organizationsAPI
}

var _ Placement = (*OrganizationsPlacement)(nil)

func NewOrganizationsPlacement(cfg aws.Config) *OrganizationsPlacement {
	return &OrganizationsPlacement{client: organizations.NewFromConfig(cfg)}
}

func (p *OrganizationsPlacement) CurrentOU(ctx context.Context, awsAccountID string) (string, error) {
	out, err := p.client.ListParents(ctx, &organizations.ListParentsInput{ChildId: aws.String(awsAccountID)})
	if err != nil {
		return "", fmt.Errorf("failed to list parents of %s: %w", awsAccountID, err)
	}

	if len(out.Parents) == 0 {
		return "", fmt.Errorf("account %s has no parent", awsAccountID)
	}

	return aws.ToString(out.Parents[0].Id), nil
}

// ParseOUMapping reads "Status:ou-id" pairs separated by commas.
func ParseOUMapping(raw string) (map[Status]string, error) {
	mapping := make(map[Status]string)
	if strings.TrimSpace(raw) == "" {
		return mapping, nil
	}

	for pair := range strings.SplitSeq(raw, ",") {
		status, ou, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || ou == "" {
			return nil, fmt.Errorf("invalid OU mapping %q, expected status:ou", pair)
		}

		known := false
		for _, s := range Statuses {
			if strings.EqualFold(string(s), status) {
				mapping[s] = ou
				known = true
			}
		}

		if !known {
			return nil, fmt.Errorf("unknown account status %q in OU mapping", status)
		}
	}

	return mapping, nil
}
