package ledger

// Kind identifies the provider resource type behind a record.
type Kind string

// Resource kinds, from the bottom of the topology up.
const (
	KindVPC               Kind = "vpc"
	KindInternetGateway   Kind = "internet-gateway"
	KindGatewayAttachment Kind = "gateway-attachment"
	KindSubnet            Kind = "subnet"
	KindElasticIP         Kind = "elastic-ip"
	KindNATGateway        Kind = "nat-gateway"
	KindRouteTable        Kind = "route-table"
	KindRoute             Kind = "route"
	KindRouteAssociation  Kind = "route-association"
	KindSecurityGroup     Kind = "security-group"
	KindSecurityGroupRule Kind = "security-group-rule"
	KindInstance          Kind = "instance"
)
