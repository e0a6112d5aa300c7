package aws

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/runner"
)

// Trainer runs training jobs on dedicated EC2 instances. One instance
// per job; the bootstrap script pulls the dataset, runs the training
// script and reports status/log callbacks to the orchestrator, which
// enforces the max-hours ceiling through a shutdown timer in the
// bootstrap.
type Trainer struct {
	client      *Client
	amiID       string
	profileName string
	callbackURL string
}

// NewTrainer creates an EC2-backed runner. amiID is a Deep Learning
// AMI for the client's region; callbackURL is where the bootstrap
// reports status updates.
func NewTrainer(client *Client, amiID, profileName, callbackURL string) *Trainer {
	return &Trainer{
		client:      client,
		amiID:       amiID,
		profileName: profileName,
		callbackURL: callbackURL,
	}
}

// SubmitJob launches a training instance for the job spec and returns
// the instance id as the external job id
func (t *Trainer) SubmitJob(ctx context.Context, spec runner.Spec) (string, error) {
	userData := base64.StdEncoding.EncodeToString([]byte(t.bootstrapScript(spec)))

	out, err := t.client.ec2Client.RunInstances(ctx, &ec2.RunInstancesInput{
		ImageId:      aws.String(t.amiID),
		InstanceType: ec2types.InstanceType(spec.MachineType),
		MinCount:     aws.Int32(1),
		MaxCount:     aws.Int32(1),
		IamInstanceProfile: &ec2types.IamInstanceProfileSpecification{
			Name: aws.String(t.profileName),
		},
		InstanceInitiatedShutdownBehavior: ec2types.ShutdownBehaviorTerminate,
		UserData:                          aws.String(userData),
		TagSpecifications: []ec2types.TagSpecification{
			{
				ResourceType: ec2types.ResourceTypeInstance,
				Tags: []ec2types.Tag{
					{Key: aws.String("Name"), Value: aws.String("automl-training-" + spec.JobID)},
					{Key: aws.String("JobID"), Value: aws.String(spec.JobID)},
					{Key: aws.String("ManagedBy"), Value: aws.String("automl-orchestrator")},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("launch training instance: %w", err)
	}
	if len(out.Instances) == 0 {
		return "", fmt.Errorf("no instance returned for job %s", spec.JobID)
	}
	return *out.Instances[0].InstanceId, nil
}

// CancelJob terminates the job's training instance. The terminated
// instance's final callback confirms the cancellation.
func (t *Trainer) CancelJob(ctx context.Context, externalID string) error {
	_, err := t.client.ec2Client.TerminateInstances(ctx, &ec2.TerminateInstancesInput{
		InstanceIds: []string{externalID},
	})
	if err != nil {
		return fmt.Errorf("terminate training instance %s: %w", externalID, err)
	}
	return nil
}

func (t *Trainer) bootstrapScript(spec runner.Spec) string {
	maxMinutes := int(spec.MaxHours * 60)
	return fmt.Sprintf(`#!/bin/bash
set -e

mkdir -p /opt/training
cd /opt/training

cat > train.py <<'TRAINING_SCRIPT'
%s
TRAINING_SCRIPT

# Hard ceiling: terminate when the allowed duration is up.
shutdown -h +%d

aws s3 cp %q dataset.csv || true

report() {
  curl -sf -X POST %q \
    -H 'Content-Type: application/json' \
    -d "$1" || true
}

report '{"job_id":"%s","status":"running","seq":1,"logs":["instance ready"]}'

if python3 train.py > train.log 2>&1; then
  report "{\"job_id\":\"%s\",\"status\":\"succeeded\",\"seq\":2,\"logs\":[\"training complete\"]}"
else
  report "{\"job_id\":\"%s\",\"status\":\"failed\",\"reason\":\"infra_failure\",\"seq\":2,\"logs\":[\"training exited nonzero\"]}"
fi

shutdown -h now
`, spec.Script, maxMinutes, spec.DatasetURI, t.callbackURL, spec.JobID, spec.JobID, spec.JobID)
}
