package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"storyboard/internal/credentials"
	"storyboard/pkg/prompts"
)

func response(finish genai.FinishReason, parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Parts: parts},
			FinishReason: finish,
		}},
	}
}

func TestImageFromResponse(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}

	tests := []struct {
		name     string
		resp     *genai.GenerateContentResponse
		want     []byte
		wantMIME string
		wantErr  error
	}{
		{
			name:    "nilResponse",
			resp:    nil,
			wantErr: ErrNoImage,
		},
		{
			name:    "noCandidates",
			resp:    &genai.GenerateContentResponse{},
			wantErr: ErrNoImage,
		},
		{
			name:    "textOnly",
			resp:    response(genai.FinishReasonStop, &genai.Part{Text: "I cannot draw that"}),
			wantErr: ErrNoImage,
		},
		{
			name: "skipsTextBeforeImage",
			resp: response(genai.FinishReasonStop,
				&genai.Part{Text: "here you go"},
				&genai.Part{InlineData: &genai.Blob{Data: png, MIMEType: "image/png"}},
			),
			want:     png,
			wantMIME: "image/png",
		},
		{
			name: "firstInlinePartWins",
			resp: response(genai.FinishReasonStop,
				&genai.Part{InlineData: &genai.Blob{Data: []byte("first"), MIMEType: "image/jpeg"}},
				&genai.Part{InlineData: &genai.Blob{Data: []byte("second"), MIMEType: "image/png"}},
			),
			want:     []byte("first"),
			wantMIME: "image/jpeg",
		},
		{
			name: "missingMIMEDefaultsToPNG",
			resp: response("",
				&genai.Part{InlineData: &genai.Blob{Data: png}},
			),
			want:     png,
			wantMIME: "image/png",
		},
		{
			name: "blockedCandidate",
			resp: response(genai.FinishReasonSafety,
				&genai.Part{InlineData: &genai.Blob{Data: png, MIMEType: "image/png"}},
			),
			wantErr: ErrNoImage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := imageFromResponse(tt.resp)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, img)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, img.Data)
			assert.Equal(t, tt.wantMIME, img.MIMEType)
		})
	}
}

func TestNoImageMessage(t *testing.T) {
	assert.Equal(t, "no image generated", ErrNoImage.Error())
}

func TestTextFromResponse(t *testing.T) {
	tests := []struct {
		name    string
		resp    *genai.GenerateContentResponse
		want    string
		wantErr bool
	}{
		{name: "empty", resp: &genai.GenerateContentResponse{}, wantErr: true},
		{name: "blankText", resp: response(genai.FinishReasonStop, &genai.Part{Text: "  \n"}), wantErr: true},
		{name: "single", resp: response(genai.FinishReasonStop, &genai.Part{Text: `[{"shotNumber":1}]`}), want: `[{"shotNumber":1}]`},
		{
			name: "joinsParts",
			resp: response(genai.FinishReasonStop, &genai.Part{Text: `[{"shotNumber"`}, &genai.Part{Text: `:1}]`}),
			want: `[{"shotNumber":1}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := textFromResponse(tt.resp)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrEmptyResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestShotListSchemaRequiresAllFields(t *testing.T) {
	assert.Equal(t, genai.TypeArray, shotListSchema.Type)
	require.NotNil(t, shotListSchema.Items)
	assert.Len(t, shotListSchema.Items.Required, 7)
	for _, field := range shotListSchema.Items.Required {
		assert.Contains(t, shotListSchema.Items.Properties, field)
	}
	assert.Equal(t, genai.TypeInteger, shotListSchema.Items.Properties["shotNumber"].Type)
}

func TestClientWithoutKey(t *testing.T) {
	p, err := prompts.Default()
	require.NoError(t, err)

	c := NewClient(credentials.NewStore(""), Config{TextModel: "m", ImageModel: "m"}, p)

	_, err = c.GenerateImage(context.Background(), "a lighthouse at dusk")
	assert.True(t, errors.Is(err, credentials.ErrNoKey))

	_, err = c.GenerateShotList(context.Background(), "INT. ROOM - DAY")
	assert.True(t, errors.Is(err, credentials.ErrNoKey))
}
