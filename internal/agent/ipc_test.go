package agent

import (
	"bufio"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bootprof/internal/model"
)

func TestEndpointAnswersGetResults(t *testing.T) {
	cmdR, cmdW := io.Pipe()
	resR, resW := io.Pipe()

	payload := model.ResultsPayload{
		LoadTimes: map[string]float64{"file:///app/a.ts": 4},
		Parents:   map[string]string{},
		ProviderPhases: map[string]map[string]float64{
			"db_provider": {"boot": 2},
		},
	}
	ep := NewEndpoint(cmdR, resW, func() model.ResultsPayload { return payload })
	go ep.Serve()

	// Garbage and unknown message types must be ignored, not fatal.
	_, err := cmdW.Write([]byte("not json at all\n"))
	require.NoError(t, err)
	_, err = cmdW.Write([]byte(`{"type":"somethingNew","data":{"x":1}}` + "\n"))
	require.NoError(t, err)
	_, err = cmdW.Write([]byte(`{"type":"getResults"}` + "\n"))
	require.NoError(t, err)

	line, err := bufio.NewReader(resR).ReadBytes('\n')
	require.NoError(t, err)

	var msg model.Message
	require.NoError(t, json.Unmarshal(line, &msg))
	assert.Equal(t, model.MsgResults, msg.Type)

	var got model.ResultsPayload
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Equal(t, 4.0, got.LoadTimes["file:///app/a.ts"])
	assert.Equal(t, 2.0, got.ProviderPhases["db_provider"]["boot"])

	cmdW.Close()
}

func TestSendReadyCarriesBootTimePair(t *testing.T) {
	cmdR, _ := io.Pipe()
	resR, resW := io.Pipe()

	ep := NewEndpoint(cmdR, resW, func() model.ResultsPayload { return model.ResultsPayload{} })

	go ep.SendReady(1500 * time.Millisecond)

	line, err := bufio.NewReader(resR).ReadBytes('\n')
	require.NoError(t, err)

	var msg model.Message
	require.NoError(t, json.Unmarshal(line, &msg))
	assert.Equal(t, model.MsgReady, msg.Type)
	require.NotNil(t, msg.BootTime)
	assert.Equal(t, [2]int64{1, 500000000}, *msg.BootTime)
}
