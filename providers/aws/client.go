// Package aws adapts the AWS SDK to the orchestration core: the
// Pricing API as a machine-rate source and EC2 as a training runner.
package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	pricingtypes "github.com/aws/aws-sdk-go-v2/service/pricing/types"
)

// locationNames maps regions to the location strings the Pricing API
// filters on
var locationNames = map[string]string{
	"us-east-1": "US East (N. Virginia)",
	"us-west-2": "US West (Oregon)",
}

// Client is the AWS provider client
type Client struct {
	ec2Client     *ec2.Client
	pricingClient *pricing.Client
	region        string
	machineTypes  []string
}

// NewClient creates a new AWS client tracking rates for the given
// machine types. The Pricing API only lives in us-east-1.
func NewClient(ctx context.Context, region string, machineTypes []string) (*Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	pricingCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion("us-east-1"))
	if err != nil {
		return nil, err
	}

	return &Client{
		ec2Client:     ec2.NewFromConfig(cfg),
		pricingClient: pricing.NewFromConfig(pricingCfg),
		region:        region,
		machineTypes:  machineTypes,
	}, nil
}

// FetchOnDemandRates fetches on-demand hourly rates from the AWS
// Pricing API for the tracked machine types
func (c *Client) FetchOnDemandRates(ctx context.Context) (map[string]float64, error) {
	location, ok := locationNames[c.region]
	if !ok {
		return nil, fmt.Errorf("no pricing location known for region %s", c.region)
	}

	rates := make(map[string]float64, len(c.machineTypes))
	for _, machineType := range c.machineTypes {
		rate, err := c.fetchRate(ctx, machineType, location)
		if err != nil {
			return nil, fmt.Errorf("fetch rate for %s: %w", machineType, err)
		}
		if rate > 0 {
			rates[machineType] = rate
		}
	}
	return rates, nil
}

func (c *Client) fetchRate(ctx context.Context, instanceType, location string) (float64, error) {
	out, err := c.pricingClient.GetProducts(ctx, &pricing.GetProductsInput{
		ServiceCode: aws.String("AmazonEC2"),
		MaxResults:  aws.Int32(10),
		Filters: []pricingtypes.Filter{
			{Type: pricingtypes.FilterTypeTermMatch, Field: aws.String("instanceType"), Value: aws.String(instanceType)},
			{Type: pricingtypes.FilterTypeTermMatch, Field: aws.String("location"), Value: aws.String(location)},
			{Type: pricingtypes.FilterTypeTermMatch, Field: aws.String("operatingSystem"), Value: aws.String("Linux")},
			{Type: pricingtypes.FilterTypeTermMatch, Field: aws.String("tenancy"), Value: aws.String("Shared")},
			{Type: pricingtypes.FilterTypeTermMatch, Field: aws.String("preInstalledSw"), Value: aws.String("NA")},
			{Type: pricingtypes.FilterTypeTermMatch, Field: aws.String("capacitystatus"), Value: aws.String("Used")},
		},
	})
	if err != nil {
		return 0, err
	}

	for _, priceList := range out.PriceList {
		if rate, ok := parseOnDemandRate(priceList); ok {
			return rate, nil
		}
	}
	return 0, nil
}

// parseOnDemandRate walks a PriceList document down to the USD
// per-hour figure: terms.OnDemand.<sku>.priceDimensions.<rate>.pricePerUnit.USD
func parseOnDemandRate(priceList string) (float64, bool) {
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(priceList), &doc); err != nil {
		return 0, false
	}

	terms, _ := doc["terms"].(map[string]interface{})
	onDemand, _ := terms["OnDemand"].(map[string]interface{})
	for _, offer := range onDemand {
		offerMap, _ := offer.(map[string]interface{})
		dimensions, _ := offerMap["priceDimensions"].(map[string]interface{})
		for _, dim := range dimensions {
			dimMap, _ := dim.(map[string]interface{})
			pricePerUnit, _ := dimMap["pricePerUnit"].(map[string]interface{})
			usd, _ := pricePerUnit["USD"].(string)
			if rate, err := strconv.ParseFloat(usd, 64); err == nil && rate > 0 {
				return rate, true
			}
		}
	}
	return 0, false
}
