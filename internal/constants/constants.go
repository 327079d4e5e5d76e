package constants

import "time"

// vendor endpoints
const AuthBaseURL = "https://api.authentication.husqvarnagroup.dev/v1"
const APIBaseURL = "https://api.amc.husqvarna.dev/v1"
const StreamURL = "wss://ws.openapi.husqvarna.dev/v1"

// the server drops idle stream connections after ~10min,
// so ping just under half-way through two idle windows
const StreamPingInterval = 570 * time.Second
const StreamPongGrace = 1 * time.Second

const ReconnectDelayMin = 5 * time.Second
const ReconnectDelayMax = 60 * time.Second

const DefaultStatisticsIntervalMinutes = 10

// initial value for the writable park/start duration states, in minutes
const DefaultActionDurationMinutes = 15

// delay between successive position writes so observers that only
// sample the latest value still see the trail the way the vendor sent it
const PositionWriteDelay = 500 * time.Millisecond

const RevokeTimeout = 5 * time.Second

// websocket close codes
const CloseNormal = 1000
const CloseGoingAway = 1001
const CloseAbnormal = 1006
const CloseServiceRestart = 1012
