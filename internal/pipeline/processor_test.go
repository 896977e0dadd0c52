package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docscan/constants"
	"github.com/joseph-ayodele/docscan/internal/common"
	"github.com/joseph-ayodele/docscan/internal/progress"
	"github.com/joseph-ayodele/docscan/internal/provider"
	"github.com/joseph-ayodele/docscan/internal/router"
)

const aadhaarFront = "GOVERNMENT OF INDIA\nAADHAAR\nName: RAVI KUMAR\nDOB: 01/01/1990\n1234 5678 9012"

func textProvider(name string, byImage map[string]string, calls *atomic.Int32) provider.Provider {
	return provider.Func{ProviderName: name, Fn: func(_ context.Context, img provider.Image, _ *progress.Reporter) (provider.Result, error) {
		if calls != nil {
			calls.Add(1)
		}
		txt, ok := byImage[string(img.Data)]
		if !ok {
			return provider.Result{}, common.Unavailable(name, errors.New("no text for image"))
		}
		return provider.Result{Text: txt, Confidence: 91, Provider: name}, nil
	}}
}

func newProcessor(t *testing.T, providers ...provider.Provider) *Processor {
	t.Helper()
	r, err := router.New(providers, nil)
	require.NoError(t, err)
	return NewProcessor(nil, r)
}

func TestScan_AadhaarEndToEnd(t *testing.T) {
	p := newProcessor(t,
		textProvider(common.ProviderOCRSpace, nil, nil),
		textProvider(common.ProviderLocal, map[string]string{"front": aadhaarFront}, nil),
	)
	var seen []int

	rec, err := p.Scan(context.Background(), provider.Image{Data: []byte("front"), Name: "card.jpg"}, func(pct int) { seen = append(seen, pct) })
	require.NoError(t, err)

	assert.Equal(t, constants.Aadhaar, rec.DocumentType)
	assert.Equal(t, aadhaarFront, rec.RawText)
	assert.Equal(t, "1234 5678 9012", rec.Field(constants.FieldAadhaarNumber))
	assert.Equal(t, "RAVI KUMAR", rec.Field(constants.FieldHolderName))
	assert.Equal(t, "01/01/1990", rec.Field(constants.FieldDateOfBirth))
	assert.Equal(t, common.ProviderLocal, rec.Provider)
	assert.Equal(t, "card.jpg", rec.SourceName)
	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.False(t, rec.ScannedAt.IsZero())
	assert.Equal(t, []int{10, 100}, seen)
}

func TestScan_PassportNoisyIdentifier(t *testing.T) {
	raw := "REPUBLIC OF INDIA\nP<INDKUMAR<<RAVI<<<<<<<<\nJ = $3879331"
	p := newProcessor(t, textProvider(common.ProviderLocal, map[string]string{"p": raw}, nil))

	rec, err := p.Scan(context.Background(), provider.Image{Data: []byte("p")}, nil)
	require.NoError(t, err)
	assert.Equal(t, constants.Passport, rec.DocumentType)
	assert.Equal(t, "3879331", rec.Field(constants.FieldPassportNumber))
}

func TestScan_Exhausted(t *testing.T) {
	p := newProcessor(t, textProvider(common.ProviderLocal, nil, nil))
	var seen []int

	_, err := p.Scan(context.Background(), provider.Image{Data: []byte("x")}, func(pct int) { seen = append(seen, pct) })
	assert.ErrorIs(t, err, common.ErrAllProvidersExhausted)
	assert.NotEmpty(t, err.Error())
	assert.NotContains(t, seen, 100)
}

func TestScan_UnknownTextStillProducesRecord(t *testing.T) {
	p := newProcessor(t, textProvider(common.ProviderLocal, map[string]string{"x": "hello world"}, nil))

	rec, err := p.Scan(context.Background(), provider.Image{Data: []byte("x")}, nil)
	require.NoError(t, err)
	assert.Equal(t, constants.Other, rec.DocumentType)
	assert.Equal(t, "hello world", rec.RawText)
}

func TestScanSides_IndependentRequests(t *testing.T) {
	var calls atomic.Int32
	back := "Address: S/O RAM KUMAR, 12 MG Road,\nLucknow,\nUttar Pradesh - 226001\n1234 5678 9012"
	p := newProcessor(t, textProvider(common.ProviderLocal, map[string]string{"front": aadhaarFront, "back": back}, &calls))

	var frontSeen, backSeen []int
	sides := p.ScanSides(context.Background(),
		provider.Image{Data: []byte("front")}, provider.Image{Data: []byte("back")},
		func(pct int) { frontSeen = append(frontSeen, pct) },
		func(pct int) { backSeen = append(backSeen, pct) },
	)
	require.NoError(t, sides.Err())
	assert.EqualValues(t, 2, calls.Load())
	assert.Equal(t, SideFront, sides.Front.Side)
	assert.Equal(t, SideBack, sides.Back.Side)
	assert.Equal(t, "226001", sides.Back.Field(constants.FieldPincode))
	assert.Len(t, sides.Records(), 2)
	assert.Equal(t, []int{10, 100}, frontSeen)
	assert.Equal(t, []int{10, 100}, backSeen)
}

func TestScanSides_OneSideFails(t *testing.T) {
	p := newProcessor(t, textProvider(common.ProviderLocal, map[string]string{"front": aadhaarFront}, nil))

	sides := p.ScanSides(context.Background(),
		provider.Image{Data: []byte("front")}, provider.Image{Data: []byte("unreadable")}, nil, nil)
	require.NoError(t, sides.FrontErr)
	assert.ErrorIs(t, sides.BackErr, common.ErrAllProvidersExhausted)
	assert.ErrorIs(t, sides.Err(), common.ErrAllProvidersExhausted)
	assert.Len(t, sides.Records(), 1)
}

func TestScanSides_FrontFailureLeavesBack(t *testing.T) {
	var calls atomic.Int32
	p := newProcessor(t, textProvider(common.ProviderLocal, map[string]string{"back": aadhaarFront}, &calls))

	sides := p.ScanSides(context.Background(),
		provider.Image{Data: []byte("blurred")}, provider.Image{Data: []byte("back")}, nil, nil)
	assert.ErrorIs(t, sides.FrontErr, common.ErrAllProvidersExhausted)
	require.NoError(t, sides.BackErr)
	assert.EqualValues(t, 2, calls.Load())
	require.Len(t, sides.Records(), 1)
	assert.Equal(t, SideBack, sides.Records()[0].Side)
	assert.Equal(t, "1234 5678 9012", sides.Back.Field(constants.FieldAadhaarNumber))
}

func TestScanSides_FrontOnly(t *testing.T) {
	p := newProcessor(t, textProvider(common.ProviderLocal, map[string]string{"front": aadhaarFront}, nil))
	sides := p.ScanSides(context.Background(), provider.Image{Data: []byte("front")}, provider.Image{}, nil, nil)
	assert.False(t, sides.HasBack)
	assert.NoError(t, sides.Err())
	assert.Len(t, sides.Records(), 1)
}
