package naming

import "fmt"

// Naming functions for network resources.
// Every resource gets exactly one logical name; the orchestrator uses it
// as the ledger key and the provider adapter uses it as the Name tag.

func VPC(cluster string) string {
	return fmt.Sprintf("%s-vpc", cluster)
}

func InternetGateway(cluster string) string {
	return fmt.Sprintf("%s-igw", cluster)
}

func GatewayAttachment(cluster string) string {
	return fmt.Sprintf("%s-igw-attachment", cluster)
}

func Subnet(cluster, tier string, index int) string {
	return fmt.Sprintf("%s-%s-subnet-%d", cluster, tier, index)
}

func ElasticIP(cluster string) string {
	return fmt.Sprintf("%s-nat-eip", cluster)
}

func NATGateway(cluster string) string {
	return fmt.Sprintf("%s-nat", cluster)
}

func RouteTable(cluster, tier string) string {
	return fmt.Sprintf("%s-%s-rt", cluster, tier)
}

func DefaultRoute(cluster, tier string) string {
	return fmt.Sprintf("%s-%s-default-route", cluster, tier)
}

func RouteAssociation(cluster, tier string, index int) string {
	return fmt.Sprintf("%s-%s-rta-%d", cluster, tier, index)
}

func SecurityGroup(cluster, role string) string {
	return fmt.Sprintf("%s-%s-sg", cluster, role)
}

func IngressRule(cluster, role, rule string) string {
	return fmt.Sprintf("%s-%s-sg-%s", cluster, role, rule)
}

func Instance(cluster, role string, index int) string {
	return fmt.Sprintf("%s-%s-%d", cluster, role, index)
}
