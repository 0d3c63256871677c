package aws

import (
	"context"
	"fmt"

	"github.com/imamik/vpcforge/internal/ledger"
)

// DeleteResource dispatches a delete by resource kind using only the ledger
// handle. This is the single entry point the unwinder uses.
func (c *Client) DeleteResource(ctx context.Context, kind ledger.Kind, handle string) error {
	switch kind {
	case ledger.KindVPC:
		return c.DeleteVPC(ctx, handle)
	case ledger.KindInternetGateway:
		return c.DeleteInternetGateway(ctx, handle)
	case ledger.KindGatewayAttachment:
		return c.DetachInternetGateway(ctx, handle)
	case ledger.KindSubnet:
		return c.DeleteSubnet(ctx, handle)
	case ledger.KindElasticIP:
		return c.ReleaseElasticIP(ctx, handle)
	case ledger.KindNATGateway:
		return c.DeleteNATGateway(ctx, handle)
	case ledger.KindRouteTable:
		return c.DeleteRouteTable(ctx, handle)
	case ledger.KindRoute:
		return c.DeleteRoute(ctx, handle)
	case ledger.KindRouteAssociation:
		return c.DisassociateRouteTable(ctx, handle)
	case ledger.KindSecurityGroup:
		return c.DeleteSecurityGroup(ctx, handle)
	case ledger.KindSecurityGroupRule:
		return c.RevokeIngress(ctx, handle)
	case ledger.KindInstance:
		return c.TerminateInstance(ctx, handle)
	default:
		return fmt.Errorf("unknown resource kind %q for handle %s", kind, handle)
	}
}
