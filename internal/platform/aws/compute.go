package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// InstanceSpec holds the parameters for launching one compute instance.
type InstanceSpec struct {
	ImageID          string
	InstanceType     string
	SubnetID         string
	SecurityGroupIDs []string
	KeyName          string
	UserData         string
}

// RunInstance launches a single instance and returns its id.
func (c *Client) RunInstance(ctx context.Context, name string, spec InstanceSpec) (string, error) {
	input := &ec2.RunInstancesInput{
		ImageId:           awssdk.String(spec.ImageID),
		InstanceType:      types.InstanceType(spec.InstanceType),
		MinCount:          awssdk.Int32(1),
		MaxCount:          awssdk.Int32(1),
		SubnetId:          awssdk.String(spec.SubnetID),
		SecurityGroupIds:  spec.SecurityGroupIDs,
		TagSpecifications: nameTags(types.ResourceTypeInstance, name),
	}
	if spec.KeyName != "" {
		input.KeyName = awssdk.String(spec.KeyName)
	}
	if spec.UserData != "" {
		input.UserData = awssdk.String(spec.UserData)
	}

	out, err := c.api.RunInstances(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to launch instance %s: %w", name, err)
	}
	if len(out.Instances) == 0 {
		return "", fmt.Errorf("launch of instance %s returned no instances", name)
	}
	return awssdk.ToString(out.Instances[0].InstanceId), nil
}

// TerminateInstance terminates the instance with the given id.
func (c *Client) TerminateInstance(ctx context.Context, id string) error {
	_, err := c.api.TerminateInstances(ctx, &ec2.TerminateInstancesInput{
		InstanceIds: []string{id},
	})
	if err != nil {
		return fmt.Errorf("failed to terminate instance %s: %w", id, err)
	}
	return nil
}
