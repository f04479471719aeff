package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/dhtick/pkg/dht"
	"github.com/itohio/dhtick/pkg/monitor"
)

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createNodeTab(state),
		createMeasurementTab(state),
		createMockTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(600, 500))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 500))
	d.Show()
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	ports, err := monitor.Ports()
	portOptions := []string{}
	portMap := make(map[string]string) // Map display name to actual port name

	if err == nil {
		for _, port := range ports {
			portOptions = append(portOptions, port.Description)
			portMap[port.Description] = port.Name
		}
	}

	currentPort := state.cfg.Serial.Port
	currentDisplay := currentPort
	found := false
	for _, opt := range portOptions {
		if portMap[opt] == currentPort {
			currentDisplay = opt
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		portOptions = append(portOptions, currentPort)
		portMap[currentPort] = currentPort
	}

	portSelect := widget.NewSelect(portOptions, nil)
	if currentDisplay != "" {
		portSelect.SetSelected(currentDisplay)
	}

	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.cfg.Serial.BaudRate))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Baud Rate", Widget: baudEntry},
		},
		OnSubmit: func() {
			changed := false
			if portSelect.Selected != "" {
				selectedPort := portMap[portSelect.Selected]
				if selectedPort == "" {
					selectedPort = portSelect.Selected
				}
				changed = state.cfg.Serial.Port != selectedPort
				state.cfg.Serial.Port = selectedPort
			}
			if baud, err := strconv.Atoi(baudEntry.Text); err == nil && baud > 0 {
				changed = changed || state.cfg.Serial.BaudRate != baud
				state.cfg.Serial.BaudRate = baud
			}
			state.saveConfig()

			if changed && !state.useMock {
				restartChain(state)
			}
		},
	}

	return container.NewTabItem("Serial", form)
}

// createNodeTab creates the tab for the simulated node's timing and sensor.
func createNodeTab(state *appState) *container.TabItem {
	sensorSelect := widget.NewSelect([]string{"dht11", "dht22"}, nil)
	sensorSelect.SetSelected(state.cfg.Node.Sensor)

	pollEntry := widget.NewEntry()
	pollEntry.SetText(state.cfg.Node.PollInterval.String())

	periodEntry := widget.NewEntry()
	periodEntry.SetText(state.cfg.Node.SamplePeriod.String())

	scaleEntry := widget.NewEntry()
	scaleEntry.SetText(strconv.FormatUint(uint64(state.cfg.Node.TimeScale), 10))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Sensor", Widget: sensorSelect},
			{Text: "Poll Interval", Widget: pollEntry},
			{Text: "Sample Period", Widget: periodEntry},
			{Text: "Time Scale", Widget: scaleEntry},
		},
		OnSubmit: func() {
			if _, err := dht.ParseModel(sensorSelect.Selected); err == nil {
				state.cfg.Node.Sensor = sensorSelect.Selected
			}
			if d, err := time.ParseDuration(pollEntry.Text); err == nil && d > 0 {
				state.cfg.Node.PollInterval = d
			}
			if d, err := time.ParseDuration(periodEntry.Text); err == nil && d > 0 {
				state.cfg.Node.SamplePeriod = d
			}
			if s, err := strconv.ParseUint(scaleEntry.Text, 10, 32); err == nil && s > 0 {
				state.cfg.Node.TimeScale = uint32(s)
			}
			state.saveConfig()

			if state.useMock {
				restartChain(state)
			}
		},
	}

	return container.NewTabItem("Node", form)
}

// createMeasurementTab creates the Measurement configuration tab.
func createMeasurementTab(state *appState) *container.TabItem {
	windowSecondsEntry := widget.NewEntry()
	windowSecondsEntry.SetText(fmt.Sprintf("%.0f", state.cfg.Measurement.WindowSeconds))

	limitEntry := widget.NewEntry()
	limitEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Measurement.HumidityLimit))

	minDurationEntry := widget.NewEntry()
	minDurationEntry.SetText(fmt.Sprintf("%.0f", state.cfg.Measurement.MinExcursionDuration))

	averageSamplesEntry := widget.NewEntry()
	averageSamplesEntry.SetText(strconv.Itoa(state.cfg.Measurement.AverageSamples))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Window (seconds)", Widget: windowSecondsEntry},
			{Text: "Humidity Limit (%RH)", Widget: limitEntry},
			{Text: "Min Excursion Duration (s)", Widget: minDurationEntry},
			{Text: "Average Samples (0=disabled)", Widget: averageSamplesEntry},
		},
		OnSubmit: func() {
			if ws, err := strconv.ParseFloat(windowSecondsEntry.Text, 64); err == nil && ws > 0 {
				state.cfg.Measurement.WindowSeconds = ws
			}
			if limit, err := strconv.ParseFloat(limitEntry.Text, 64); err == nil && limit > 0 {
				state.cfg.Measurement.HumidityLimit = limit
			}
			if d, err := strconv.ParseFloat(minDurationEntry.Text, 64); err == nil && d >= 0 {
				state.cfg.Measurement.MinExcursionDuration = d
			}
			if avg, err := strconv.Atoi(averageSamplesEntry.Text); err == nil && avg >= 0 {
				state.cfg.Measurement.AverageSamples = avg
			}
			state.saveConfig()

			// The meter reads its parameters once, so the chain is rebuilt
			// around a fresh one.
			connected := state.device != nil && state.device.IsConnected()
			if connected {
				handleConnect(state)
			}
			state.replaceMeter()
			state.scopeWidget.Clear()
			if connected {
				handleConnect(state)
			}
		},
	}

	return container.NewTabItem("Measurement", form)
}

// createMockTab creates the simulated sensor configuration tab.
func createMockTab(state *appState) *container.TabItem {
	temperatureEntry := widget.NewEntry()
	temperatureEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Mock.Temperature))

	humidityEntry := widget.NewEntry()
	humidityEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Mock.Humidity))

	noiseEntry := widget.NewEntry()
	noiseEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Mock.Noise))

	failEveryEntry := widget.NewEntry()
	failEveryEntry.SetText(strconv.Itoa(state.cfg.Mock.FailEvery))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Temperature (°C)", Widget: temperatureEntry},
			{Text: "Humidity (%RH)", Widget: humidityEntry},
			{Text: "Noise", Widget: noiseEntry},
			{Text: "Fail Every (0=never)", Widget: failEveryEntry},
		},
		OnSubmit: func() {
			if v, err := strconv.ParseFloat(temperatureEntry.Text, 64); err == nil {
				state.cfg.Mock.Temperature = v
			}
			if v, err := strconv.ParseFloat(humidityEntry.Text, 64); err == nil && v > 0 && v <= 100 {
				state.cfg.Mock.Humidity = v
			}
			if v, err := strconv.ParseFloat(noiseEntry.Text, 64); err == nil && v >= 0 {
				state.cfg.Mock.Noise = v
			}
			if v, err := strconv.Atoi(failEveryEntry.Text); err == nil && v >= 0 {
				state.cfg.Mock.FailEvery = v
			}
			state.saveConfig()

			if state.useMock {
				restartChain(state)
			}
		},
	}

	return container.NewTabItem("Mock", form)
}
