// Package db looks up recording metadata (artist, release, title, year)
// keyed by audio filename, for annotating served alignment artifacts.
package db

import (
	"fmt"
	"os"
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"

	"github.com/johentsch/scoresync/model"
)

const tableName = "scoresync-recordings"

// GetRecordingMetadatas fetches metadata for up to 10 audio filenames.
// The DynamoDB endpoint comes from SCORESYNC_DYNAMO_ENDPOINT; missing
// entries are simply absent from the result.
func GetRecordingMetadatas(filenames []string) (map[string]model.RecordingMetadata, error) {
	res := make(map[string]model.RecordingMetadata)
	if len(filenames) == 0 {
		return res, nil
	}
	if len(filenames) > 10 {
		return nil, fmt.Errorf("db: at most 10 filenames per lookup, got %d", len(filenames))
	}

	endpoint := os.Getenv("SCORESYNC_DYNAMO_ENDPOINT")
	cfg := &aws.Config{}
	if endpoint != "" {
		cfg.Endpoint = &endpoint
		cfg.Region = aws.String("localhost")
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("db: creating session: %w", err)
	}

	var keys []map[string]*dynamodb.AttributeValue
	for _, filename := range filenames {
		keys = append(keys, map[string]*dynamodb.AttributeValue{
			"PK": {S: aws.String(filename)},
		})
	}
	client := dynamodb.New(sess)
	out, err := client.BatchGetItem(&dynamodb.BatchGetItemInput{
		RequestItems: map[string]*dynamodb.KeysAndAttributes{
			tableName: {Keys: keys},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("db: batch get: %w", err)
	}

	for _, v := range out.Responses[tableName] {
		var m model.RecordingMetadata
		if v["Year"] != nil && v["Year"].N != nil {
			year, _ := strconv.ParseUint(*v["Year"].N, 10, 32)
			m.Year = uint(year)
		}
		if v["Artist"] != nil && v["Artist"].S != nil {
			m.Artist = *v["Artist"].S
		}
		if v["Release"] != nil && v["Release"].S != nil {
			m.Release = *v["Release"].S
		}
		if v["Title"] != nil && v["Title"].S != nil {
			m.Title = *v["Title"].S
		}
		res[*v["PK"].S] = m
	}
	return res, nil
}
