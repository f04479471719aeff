package main

import (
	"flag"
	"fmt"
	"log"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/dhtick/pkg/config"
	"github.com/itohio/dhtick/pkg/meter"
	"github.com/itohio/dhtick/pkg/monitor"
	"github.com/itohio/dhtick/pkg/sample"
	"github.com/itohio/dhtick/pkg/scope"
)

func main() {
	var (
		portFlag           = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag         = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag           = flag.Bool("mock", false, "Use a simulated node instead of the serial port")
		averageSamplesFlag = flag.Int("average-samples", -1, "Number of samples to average (0 = disabled, overrides config)")
		timeScaleFlag      = flag.Uint("time-scale", 0, "Speed up the simulated node (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *averageSamplesFlag >= 0 {
		cfg.Measurement.AverageSamples = *averageSamplesFlag
	}
	if *timeScaleFlag > 0 {
		cfg.Node.TimeScale = uint32(*timeScaleFlag)
	}

	application := app.NewWithID("com.itohio.dhtick")

	window := application.NewWindow("DHT Monitor")
	window.Resize(fyne.NewSize(1200, 800))
	window.CenterOnScreen()

	state := &appState{
		cfg:        cfg,
		configPath: *configFlag,
		window:     window,
		useMock:    *mockFlag,
	}

	toolbar := createToolbar(state)
	state.scopeWidget = scope.New(cfg)
	state.status = newStatusBar()
	state.replaceMeter()

	window.SetContent(container.NewBorder(
		toolbar,
		state.status.object(),
		nil,
		nil,
		state.scopeWidget,
	))
	window.SetOnClosed(func() {
		closeMeasurementChain(state.chain)
	})
	window.ShowAndRun()
}

// measurementChain tracks the components of the measurement chain for graceful shutdown.
type measurementChain struct {
	device         monitor.Device
	samplesStream  <-chan sample.Sample
	meterGoroutine chan struct{} // Closed when meter goroutine exits
}

// appState holds the application state.
type appState struct {
	cfg         *config.Config
	configPath  string
	device      monitor.Device
	climate     *meter.Meter
	scopeWidget *scope.ScopeWidget
	status      *statusBar
	window      fyne.Window
	connectBtn  *widget.Button
	clearBtn    *widget.Button
	useMock     bool
	chain       *measurementChain // Current measurement chain (nil if not connected)

	// Throttling for scope updates
	lastUpdateTime time.Time
	updateMu       sync.Mutex
}

// createToolbar creates the application toolbar with Connect, Settings and Clear buttons.
func createToolbar(state *appState) fyne.CanvasObject {
	connectBtn := widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	clearBtn := widget.NewButtonWithIcon("", theme.ContentClearIcon(), func() {
		state.climate.Clear()
		state.scopeWidget.Clear()
		state.status.reset()
	})
	state.clearBtn = clearBtn

	return container.NewBorder(
		nil,
		nil,
		container.NewHBox(connectBtn, settingsBtn),
		container.NewHBox(clearBtn),
		nil,
	)
}

// replaceMeter creates a meter from the current configuration and wires it
// to the scope and the status bar.
func (state *appState) replaceMeter() {
	const updateInterval = 16 * time.Millisecond // ~60 FPS

	m := meter.New(state.cfg)
	m.OnUpdate(func(samples []sample.Sample, rates []float64, excursions []meter.Excursion) {
		state.updateMu.Lock()
		now := time.Now()
		if now.Sub(state.lastUpdateTime) < updateInterval {
			state.updateMu.Unlock()
			return
		}
		state.lastUpdateTime = now
		state.updateMu.Unlock()

		summary := m.Summary()
		fyne.Do(func() {
			state.scopeWidget.UpdateData(samples, excursions)
			state.status.update(samples, summary, len(excursions))
		})
	})
	state.climate = m
}

// closeMeasurementChain closes the device and waits for the meter goroutine,
// which exits once the converters drain.
func closeMeasurementChain(chain *measurementChain) {
	if chain == nil {
		return
	}

	if chain.device != nil {
		chain.device.Close()
	}

	if chain.meterGoroutine != nil {
		<-chain.meterGoroutine
	}
}

func (state *appState) deviceName() string {
	if state.useMock {
		return "simulated node"
	}
	return state.cfg.Serial.Port
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	if state.device != nil && state.device.IsConnected() {
		closeMeasurementChain(state.chain)
		state.chain = nil
		state.device = nil
		state.connectBtn.SetIcon(theme.LoginIcon())
		state.status.setConnection("Disconnected")
		log.Printf("Disconnected from %s", state.deviceName())
		return
	}

	var device monitor.Device
	if state.useMock {
		device = monitor.NewMock(&state.cfg.Mock, &state.cfg.Node)
	} else {
		device = monitor.New(state.cfg.Serial.Port, state.cfg.Serial.BaudRate, monitor.DefaultBufferSize)
	}

	if err := device.Connect(); err != nil {
		dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", state.deviceName(), err), state.window)
		return
	}
	state.device = device
	state.connectBtn.SetIcon(theme.LogoutIcon())
	state.status.setConnection("Connected to " + state.deviceName())
	log.Printf("Connected to %s", state.deviceName())

	state.climate.ResetShutdown()

	onFailure := func(rec monitor.Record) {
		fyne.Do(func() {
			state.status.failure(rec)
		})
	}

	baseStream := sample.NewConverter(500, onFailure)(device.Records())

	var samplesStream <-chan sample.Sample
	if state.cfg.Measurement.AverageSamples > 1 {
		samplesStream = sample.NewAveragingConverter(state.cfg.Measurement.AverageSamples, 500)(baseStream)
	} else {
		samplesStream = baseStream
	}

	meterDone := make(chan struct{})
	climate := state.climate
	go func() {
		defer close(meterDone)
		climate.ProcessSamples(samplesStream)
	}()

	state.chain = &measurementChain{
		device:         device,
		samplesStream:  samplesStream,
		meterGoroutine: meterDone,
	}
}

// restartChain reconnects after a setting that affects the chain changed.
func restartChain(state *appState) {
	if state.device == nil || !state.device.IsConnected() {
		return
	}
	handleConnect(state) // disconnect
	handleConnect(state) // connect with the new settings
}

func (state *appState) saveConfig() {
	if err := state.cfg.Save(state.configPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
	}
}
