// Package miniostore persists results in an object bucket, for deployments
// running more than one instance against shared storage.
package miniostore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	domain "github.com/iyervish/design-crit/internal/domain/analysis"
)

type Store struct {
	client     *minio.Client
	bucketName string
	region     string
}

// New connects to MinIO and ensures the bucket exists.
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	return &Store{client: cli, bucketName: bucket, region: region}, nil
}

// Put uploads the screenshot first and the verdict last, mirroring the
// flat-file backend: a verdict object never exists without its image. If the
// verdict upload fails the screenshot object is removed again.
func (s *Store) Put(ctx context.Context, res *domain.Result, image []byte) (domain.ResultID, error) {
	id := domain.NewID()

	data, err := json.Marshal(res)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}

	imageKey := imageKey(id)
	if _, err := s.client.PutObject(ctx, s.bucketName, imageKey,
		bytes.NewReader(image), int64(len(image)),
		minio.PutObjectOptions{ContentType: "image/png"}); err != nil {
		return "", fmt.Errorf("upload screenshot: %w", err)
	}
	if _, err := s.client.PutObject(ctx, s.bucketName, resultKey(id),
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"}); err != nil {
		_ = s.client.RemoveObject(ctx, s.bucketName, imageKey, minio.RemoveObjectOptions{})
		return "", fmt.Errorf("upload result: %w", err)
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, id domain.ResultID) (*domain.Result, []byte, error) {
	data, err := s.download(ctx, resultKey(id))
	if err != nil {
		return nil, nil, err
	}
	image, err := s.download(ctx, imageKey(id))
	if err != nil {
		return nil, nil, err
	}

	var res domain.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, nil, fmt.Errorf("decode stored result %s: %w", id, err)
	}
	return &res, image, nil
}

func (s *Store) Recent(ctx context.Context, page, pageSize int) ([]domain.Summary, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	var summaries []domain.Summary
	for obj := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{Prefix: "results/"}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		id := domain.ResultID(strings.TrimSuffix(strings.TrimPrefix(obj.Key, "results/"), ".json"))
		res, _, err := s.Get(ctx, id)
		if err != nil {
			continue
		}
		summaries = append(summaries, domain.Summary{
			ID:           id,
			OverallScore: res.OverallScore,
			SourceType:   res.SourceType,
			SourceValue:  res.SourceValue,
			Timestamp:    res.Timestamp,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Timestamp.After(summaries[j].Timestamp)
	})

	start := (page - 1) * pageSize
	if start >= len(summaries) {
		return []domain.Summary{}, nil
	}
	end := start + pageSize
	if end > len(summaries) {
		end = len(summaries)
	}
	return summaries[start:end], nil
}

func (s *Store) download(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func resultKey(id domain.ResultID) string { return fmt.Sprintf("results/%s.json", id) }
func imageKey(id domain.ResultID) string  { return fmt.Sprintf("screenshots/%s.png", id) }
