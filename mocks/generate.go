package mocks

//go:generate mockgen -destination=./mock_datasource.go -package=mocks github.com/rxtech-lab/argo-equities/internal/backtest/engine/engine_v1/datasource DataSource
//go:generate mockgen -destination=./mock_broker.go -package=mocks github.com/rxtech-lab/argo-equities/internal/backtest/engine Broker
//go:generate mockgen -destination=./mock_marker.go -package=mocks github.com/rxtech-lab/argo-equities/internal/marker Marker
