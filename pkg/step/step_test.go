package step

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/videostream/pkg/adapters/ggrenderer"
	"github.com/user/videostream/pkg/adapters/logger"
	"github.com/user/videostream/pkg/adapters/softscene"
	"github.com/user/videostream/pkg/descriptor"
	"github.com/user/videostream/pkg/framesource"
	"github.com/user/videostream/pkg/mocks"
	"github.com/user/videostream/pkg/ports"
)

func newTestStep(dec *mocks.FrameDecoder, opts Options) *Step {
	return New("/tmp/workflow/videostream", func() (ports.FrameDecoder, error) {
		return dec, nil
	}, logger.NewNoop(), opts)
}

func configuredStep(t *testing.T, dec *mocks.FrameDecoder, opts Options) *Step {
	t.Helper()
	s := newTestStep(dec, opts)
	require.NoError(t, s.Deserialize(`{"identifier": "video1"}`))
	require.True(t, s.IsConfigured())
	return s
}

// editingDialog edits the identifier while "shown", as a user would.
type editingDialog struct {
	*HeadlessDialog
	edit string
}

func (d *editingDialog) Exec() bool {
	d.SetIdentifier(d.edit)
	return d.HeadlessDialog.Exec()
}

func TestStep_Metadata(t *testing.T) {
	s := newTestStep(mocks.NewFrameDecoder(30, 90, 4, 4), Options{})

	assert.Equal(t, "videostream", s.Name())
	assert.Equal(t, "Utility", s.Category())
	assert.Equal(t, "/tmp/workflow/videostream", s.Location())
	assert.Equal(t, StateUnconfigured, s.State())
	assert.False(t, s.IsConfigured())

	p := s.Ports()
	require.Len(t, p, 4)
	assert.Equal(t, TypeImageContext, p[PortContext].Object)
	assert.Equal(t, TypeFileLocation, p[PortFilePath].Object)
	assert.Equal(t, TypeVideoObject, p[PortFrameSource].Object)
	assert.Equal(t, TypeVideoDescriptor, p[PortDescriptor].Object)
	assert.True(t, p[PortContext].Uses())
	assert.True(t, p[PortFilePath].Uses())
	assert.False(t, p[PortFrameSource].Uses())
	assert.False(t, p[PortDescriptor].Uses())
}

func TestStep_SerializeDefault(t *testing.T) {
	s := newTestStep(mocks.NewFrameDecoder(30, 90, 4, 4), Options{})

	text, err := s.Serialize()

	require.NoError(t, err)
	assert.Equal(t, "{\n    \"identifier\": \"\"\n}", text)
}

func TestStep_SerializeRoundTrip(t *testing.T) {
	a := newTestStep(mocks.NewFrameDecoder(30, 90, 4, 4), Options{})
	require.NoError(t, a.Deserialize(`{"identifier": "video1", "zeta": 3, "alpha": "x"}`))

	text, err := a.Serialize()
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"alpha\": \"x\",\n    \"identifier\": \"video1\",\n    \"zeta\": 3\n}", text)

	b := newTestStep(mocks.NewFrameDecoder(30, 90, 4, 4), Options{})
	require.NoError(t, b.Deserialize(text))

	assert.Equal(t, "video1", b.Identifier())
	assert.True(t, b.IsConfigured())
	again, err := b.Serialize()
	require.NoError(t, err)
	assert.Equal(t, text, again)
}

func TestStep_SerializeKeepsLargeNumbers(t *testing.T) {
	s := newTestStep(mocks.NewFrameDecoder(30, 90, 4, 4), Options{})
	require.NoError(t, s.Deserialize(`{"identifier": "video1", "seed": 9007199254740993, "ratio": 0.1}`))

	text, err := s.Serialize()

	require.NoError(t, err)
	assert.Equal(t, "{\n    \"identifier\": \"video1\",\n    \"ratio\": 0.1,\n    \"seed\": 9007199254740993\n}", text)
}

func TestParseConfig_TrailingData(t *testing.T) {
	_, err := ParseConfig(`{"identifier": "a"} {"identifier": "b"}`)
	assert.Error(t, err)

	cfg, err := ParseConfig("  {\"identifier\": \"a\"}\n")
	require.NoError(t, err)
	assert.Equal(t, "a", cfg.Identifier())
}

func TestStep_DeserializeValidation(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		occurs     map[string]int
		configured bool
	}{
		{name: "unique identifier", text: `{"identifier": "v1"}`, configured: true},
		{name: "empty identifier", text: `{"identifier": ""}`, configured: false},
		{name: "missing identifier", text: `{}`, configured: false},
		{name: "non-string identifier", text: `{"identifier": 7}`, configured: false},
		{name: "occurs once as itself", text: `{"identifier": "v1"}`, occurs: map[string]int{"v1": 1}, configured: true},
		{name: "used by another step", text: `{"identifier": "v1"}`, occurs: map[string]int{"v1": 2}, configured: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStep(mocks.NewFrameDecoder(30, 90, 4, 4), Options{})
			if tt.occurs != nil {
				s.SetIdentifierOccursCount(func(id string) int { return tt.occurs[id] })
			}

			require.NoError(t, s.Deserialize(tt.text))

			assert.Equal(t, tt.configured, s.IsConfigured())
		})
	}
}

func TestStep_DeserializeInvalidJSON(t *testing.T) {
	s := newTestStep(mocks.NewFrameDecoder(30, 90, 4, 4), Options{})

	err := s.Deserialize(`{"identifier":`)

	assert.Error(t, err)
	assert.False(t, s.IsConfigured())
}

func TestStep_DeserializeClearsConfigured(t *testing.T) {
	s := newTestStep(mocks.NewFrameDecoder(30, 90, 4, 4), Options{})
	require.NoError(t, s.Deserialize(`{"identifier": "v1"}`))
	require.True(t, s.IsConfigured())

	require.NoError(t, s.Deserialize(`{"identifier": ""}`))

	assert.False(t, s.IsConfigured())
	assert.Equal(t, StateUnconfigured, s.State())
}

func TestStep_Configure(t *testing.T) {
	s := newTestStep(mocks.NewFrameDecoder(30, 90, 4, 4), Options{})
	notified := 0
	s.OnConfigured(func() { notified++ })

	s.Configure(&editingDialog{HeadlessDialog: NewHeadlessDialog(), edit: "camera"})

	assert.True(t, s.IsConfigured())
	assert.Equal(t, StateConfigured, s.State())
	assert.Equal(t, "camera", s.Identifier())
	assert.Equal(t, 1, notified)
}

func TestStep_ConfigureRejectsDuplicate(t *testing.T) {
	s := newTestStep(mocks.NewFrameDecoder(30, 90, 4, 4), Options{})
	s.SetIdentifierOccursCount(func(id string) int {
		if id == "taken" {
			return 1
		}
		return 0
	})
	notified := 0
	s.OnConfigured(func() { notified++ })

	s.Configure(&editingDialog{HeadlessDialog: NewHeadlessDialog(), edit: "taken"})

	assert.False(t, s.IsConfigured())
	assert.Equal(t, "", s.Identifier(), "rejected dialog leaves config untouched")
	assert.Equal(t, 1, notified, "observer is notified either way")
}

func TestStep_ConfigureKeepsOwnIdentifier(t *testing.T) {
	s := newTestStep(mocks.NewFrameDecoder(30, 90, 4, 4), Options{})
	s.SetIdentifier("mine")
	s.SetIdentifierOccursCount(func(id string) int {
		if id == "mine" {
			return 1
		}
		return 0
	})

	s.Configure(&editingDialog{HeadlessDialog: NewHeadlessDialog(), edit: "mine"})

	assert.True(t, s.IsConfigured())
}

func TestStep_ExecuteNotConfigured(t *testing.T) {
	s := newTestStep(mocks.NewFrameDecoder(30, 90, 4, 4), Options{})
	require.NoError(t, s.SetPortData(PortContext, mocks.NewSceneContext()))
	require.NoError(t, s.SetPortData(PortFilePath, "clip.mp4"))

	err := s.Execute(context.Background())

	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestStep_ExecuteMissingPortData(t *testing.T) {
	tests := []struct {
		name  string
		scene bool
		path  string
	}{
		{name: "nothing set"},
		{name: "only context", scene: true},
		{name: "only path", path: "clip.mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := configuredStep(t, mocks.NewFrameDecoder(30, 90, 4, 4), Options{})
			if tt.scene {
				require.NoError(t, s.SetPortData(PortContext, mocks.NewSceneContext()))
			}
			if tt.path != "" {
				require.NoError(t, s.SetPortData(PortFilePath, tt.path))
			}

			err := s.Execute(context.Background())

			assert.ErrorIs(t, err, ErrMissingPortData)
		})
	}
}

func TestStep_ExecuteClip(t *testing.T) {
	dec := mocks.NewFrameDecoder(30, 90, 640, 480)
	debug := mocks.NewDebugSink(true)
	s := configuredStep(t, dec, Options{
		Source:      framesource.DefaultOptions(),
		PixelFormat: ports.PixelFormatBGR,
		Sink:        debug,
	})
	scene := mocks.NewSceneContext()
	done := 0
	s.OnDone(func() { done++ })

	require.NoError(t, s.SetPortData(PortContext, scene))
	require.NoError(t, s.SetPortData(PortFilePath, "clip.mp4"))
	require.NoError(t, s.Execute(context.Background()))
	defer s.Close()

	assert.Equal(t, StateExecuted, s.State())
	assert.Equal(t, 1, done)
	assert.Equal(t, []string{"clip.mp4"}, dec.OpenCalls)

	data, err := s.PortData(PortFrameSource)
	require.NoError(t, err)
	src, ok := data.(*framesource.Source)
	require.True(t, ok)
	assert.Equal(t, 30, src.FPS())
	assert.Equal(t, 90, src.TotalFrames())
	assert.Equal(t, 1, src.CurrentFrameIndex())
	assert.Equal(t, 33*time.Millisecond, src.Interval())

	data, err = s.PortData(PortDescriptor)
	require.NoError(t, err)
	desc, ok := data.(*descriptor.Descriptor)
	require.True(t, ok)
	assert.Equal(t, 30, desc.FPS())
	assert.Equal(t, 90, desc.FrameCount())
	assert.Equal(t, "clip.mp4", desc.FileName())
	assert.Equal(t, ports.Dimension{Width: 640, Height: 480}, desc.ImageDimensions())
	assert.Same(t, scene, desc.Context())

	assert.Equal(t, 1, scene.FieldCount())
	assert.Equal(t, 1, scene.MaterialCount())

	require.Equal(t, 1, debug.DescriptorCount())
	var saved map[string]any
	require.NoError(t, json.Unmarshal(debug.LastDescriptor(), &saved))
	assert.Equal(t, "clip.mp4", saved["file_name"])
	assert.EqualValues(t, 30, saved["fps"])
}

func TestStep_ReExecuteReleasesPreviousSource(t *testing.T) {
	var decoders []*mocks.FrameDecoder
	s := New("loc", func() (ports.FrameDecoder, error) {
		dec := mocks.NewFrameDecoder(25, 10, 8, 8)
		decoders = append(decoders, dec)
		return dec, nil
	}, logger.NewNoop(), Options{})
	require.NoError(t, s.Deserialize(`{"identifier": "v"}`))
	scene := mocks.NewSceneContext()
	require.NoError(t, s.SetPortData(PortContext, scene))
	require.NoError(t, s.SetPortData(PortFilePath, "a.mp4"))

	require.NoError(t, s.Execute(context.Background()))
	first, _ := s.PortData(PortFrameSource)
	firstMaterial := first.(*framesource.Source).Sink().Material().Name()

	require.NoError(t, s.SetPortData(PortFilePath, "b.mp4"))
	require.NoError(t, s.Execute(context.Background()))
	second, _ := s.PortData(PortFrameSource)

	require.Len(t, decoders, 2)
	assert.Equal(t, 1, decoders[0].CloseCalls)
	assert.Equal(t, 0, decoders[1].CloseCalls)
	assert.NotSame(t, first, second)
	assert.Equal(t, "b.mp4", second.(*framesource.Source).FileName())
	assert.Equal(t, []string{firstMaterial}, scene.Removed)

	require.NoError(t, s.Close())
	assert.Equal(t, 1, decoders[1].CloseCalls)
	assert.Len(t, scene.Removed, 2)
}

func TestStep_ReExecuteOnSoftwareScene(t *testing.T) {
	sizes := []ports.Dimension{{Width: 8, Height: 8}, {Width: 4, Height: 2}}
	calls := 0
	s := New("loc", func() (ports.FrameDecoder, error) {
		size := sizes[calls%len(sizes)]
		calls++
		return mocks.NewFrameDecoder(25, 10, size.Width, size.Height), nil
	}, logger.NewNoop(), Options{})
	require.NoError(t, s.Deserialize(`{"identifier": "v"}`))

	scene := softscene.New(ggrenderer.New(), softscene.DefaultOptions())
	require.NoError(t, s.SetPortData(PortContext, scene))
	require.NoError(t, s.SetPortData(PortFilePath, "clip.mp4"))
	defer s.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Execute(context.Background()), "execution %d", i+1)

		data, err := s.PortData(PortFrameSource)
		require.NoError(t, err)
		material := data.(*framesource.Source).Sink().Material()
		require.NotNil(t, material)
		assert.Equal(t, []string{material.Name()}, scene.MaterialNames(), "only the current texture stays bound")

		descData, err := s.PortData(PortDescriptor)
		require.NoError(t, err)
		_, err = descData.(*descriptor.Descriptor).Surface().Render(16, 16)
		require.NoError(t, err)
	}

	require.NoError(t, s.Close())
	assert.Empty(t, scene.MaterialNames())
}

func TestStep_StepsShareSoftwareScene(t *testing.T) {
	scene := softscene.New(ggrenderer.New(), softscene.DefaultOptions())
	a := configuredStep(t, mocks.NewFrameDecoder(25, 10, 4, 4), Options{})
	b := configuredStep(t, mocks.NewFrameDecoder(25, 10, 4, 4), Options{})
	defer a.Close()
	defer b.Close()

	for _, st := range []*Step{a, b} {
		require.NoError(t, st.SetPortData(PortContext, scene))
		require.NoError(t, st.SetPortData(PortFilePath, "clip.mp4"))
		require.NoError(t, st.Execute(context.Background()))
	}

	assert.Len(t, scene.MaterialNames(), 2)
}

func TestStep_ReExecuteWhileFrameHookUsesStep(t *testing.T) {
	var s *Step
	var ticks atomic.Int32
	opts := Options{
		Source: framesource.Options{
			RewindRetries: 1,
			OnFrame: func(int) {
				_ = s.State()
				_, _ = s.PortData(PortDescriptor)
				ticks.Add(1)
			},
		},
		AutoPlay: true,
	}
	s = New("loc", func() (ports.FrameDecoder, error) {
		return mocks.NewFrameDecoder(500, 10, 4, 4), nil
	}, logger.NewNoop(), opts)
	require.NoError(t, s.Deserialize(`{"identifier": "v"}`))
	require.NoError(t, s.SetPortData(PortContext, mocks.NewSceneContext()))
	require.NoError(t, s.SetPortData(PortFilePath, "clip.mp4"))

	require.NoError(t, s.Execute(context.Background()))
	require.Eventually(t, func() bool { return ticks.Load() > 2 }, 2*time.Second, time.Millisecond)

	done := make(chan error, 1)
	go func() {
		if err := s.Execute(context.Background()); err != nil {
			done <- err
			return
		}
		done <- s.Close()
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Execute and Close blocked while the frame hook called into the step")
	}
}

func TestStep_ExecuteOpenFailure(t *testing.T) {
	dec := mocks.NewFrameDecoder(30, 90, 4, 4)
	dec.OpenFunc = func(ctx context.Context, path string) (ports.VideoInfo, error) {
		return ports.VideoInfo{}, errors.New("no such file")
	}
	s := configuredStep(t, dec, Options{})
	done := 0
	s.OnDone(func() { done++ })
	require.NoError(t, s.SetPortData(PortContext, mocks.NewSceneContext()))
	require.NoError(t, s.SetPortData(PortFilePath, "missing.mp4"))

	err := s.Execute(context.Background())

	assert.ErrorIs(t, err, framesource.ErrCannotOpen)
	assert.Equal(t, StateConfigured, s.State())
	assert.Equal(t, 0, done)
	data, err := s.PortData(PortFrameSource)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestStep_ExecuteDecoderFactoryError(t *testing.T) {
	s := New("loc", func() (ports.FrameDecoder, error) {
		return nil, errors.New("ffmpeg not found")
	}, logger.NewNoop(), Options{})
	require.NoError(t, s.Deserialize(`{"identifier": "v"}`))
	require.NoError(t, s.SetPortData(PortContext, mocks.NewSceneContext()))
	require.NoError(t, s.SetPortData(PortFilePath, "clip.mp4"))

	err := s.Execute(context.Background())

	assert.ErrorContains(t, err, "ffmpeg not found")
}

func TestStep_SetPortData(t *testing.T) {
	tests := []struct {
		name    string
		index   int
		data    any
		wantErr error
	}{
		{name: "context", index: PortContext, data: mocks.NewSceneContext()},
		{name: "path", index: PortFilePath, data: "clip.mp4"},
		{name: "context wrong type", index: PortContext, data: "clip.mp4", wantErr: ErrPortType},
		{name: "path wrong type", index: PortFilePath, data: 42, wantErr: ErrPortType},
		{name: "provides port", index: PortFrameSource, data: "x", wantErr: ErrInvalidPort},
		{name: "out of range", index: 9, data: "x", wantErr: ErrInvalidPort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStep(mocks.NewFrameDecoder(30, 90, 4, 4), Options{})

			err := s.SetPortData(tt.index, tt.data)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStep_PortDataBeforeExecute(t *testing.T) {
	s := newTestStep(mocks.NewFrameDecoder(30, 90, 4, 4), Options{})

	for _, index := range []int{PortFrameSource, PortDescriptor} {
		data, err := s.PortData(index)
		require.NoError(t, err)
		assert.Nil(t, data)
	}

	_, err := s.PortData(PortContext)
	assert.ErrorIs(t, err, ErrInvalidPort)
}

func TestStep_AsStage(t *testing.T) {
	s := configuredStep(t, mocks.NewFrameDecoder(24, 48, 16, 8), Options{})
	defer s.Close()
	scene := mocks.NewSceneContext()

	out, err := s.AsStage().Execute(context.Background(), Inputs{Context: scene, FilePath: "stage.mp4"})

	require.NoError(t, err)
	require.NotNil(t, out.Source)
	require.NotNil(t, out.Descriptor)
	assert.Equal(t, 24, out.Source.FPS())
	assert.Equal(t, ports.Dimension{Width: 16, Height: 8}, out.Descriptor.ImageDimensions())
}

func TestStep_AutoPlay(t *testing.T) {
	frames := make(chan int, 16)
	opts := Options{
		Source: framesource.Options{
			RewindRetries: 1,
			OnFrame: func(index int) {
				select {
				case frames <- index:
				default:
				}
			},
		},
		AutoPlay: true,
	}
	s := configuredStep(t, mocks.NewFrameDecoder(500, 10, 4, 4), opts)
	require.NoError(t, s.SetPortData(PortContext, mocks.NewSceneContext()))
	require.NoError(t, s.SetPortData(PortFilePath, "clip.mp4"))

	require.NoError(t, s.Execute(context.Background()))

	select {
	case index := <-frames:
		assert.Equal(t, 2, index)
	case <-time.After(2 * time.Second):
		t.Fatal("playback did not advance")
	}

	require.NoError(t, s.Close())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "unconfigured", StateUnconfigured.String())
	assert.Equal(t, "configured", StateConfigured.String())
	assert.Equal(t, "executed", StateExecuted.String())
	assert.Equal(t, "unknown", State(42).String())
}
