package execdb

import "main/internal/model"

// Durable key schema. Index membership lives in sets, 1:1 id mappings in
// hash fields, per-aggregate event logs in append-only lists.
const (
	keyAccounts         = "index:accounts"
	keyOrders           = "index:orders"
	keyPositions        = "index:positions"
	keyOrdersWorking    = "index:orders:working"
	keyOrdersCompleted  = "index:orders:completed"
	keyPositionsOpen    = "index:positions:open"
	keyPositionsClosed  = "index:positions:closed"
	keyOrderTrader      = "index:order:trader"
	keyOrderAccount     = "index:order:account"
	keyOrderPosition    = "index:order:position"
	keyPositionTrader   = "index:position:trader"
)

func keyTraderOrders(t model.TraderID) string {
	return "index:trader:" + string(t) + ":orders"
}

func keyTraderPositions(t model.TraderID) string {
	return "index:trader:" + string(t) + ":positions"
}

func keyTraderStrategies(t model.TraderID) string {
	return "index:trader:" + string(t) + ":strategies"
}

func keyAccountOrders(a model.AccountID) string {
	return "index:account:" + string(a) + ":orders"
}

func keyAccountPositions(a model.AccountID) string {
	return "index:account:" + string(a) + ":positions"
}

func keyStrategyOrders(t model.TraderID, s model.StrategyID) string {
	return "index:trader:" + string(t) + ":strategy:" + string(s) + ":orders"
}

func keyStrategyPositions(t model.TraderID, s model.StrategyID) string {
	return "index:trader:" + string(t) + ":strategy:" + string(s) + ":positions"
}

func keyPositionOrders(p model.PositionID) string {
	return "index:position:" + string(p) + ":orders"
}

func keyOrderEvents(id model.OrderID) string {
	return "events:order:" + string(id)
}

func keyPositionEvents(id model.PositionID) string {
	return "events:position:" + string(id)
}

func keyAccountEvents(id model.AccountID) string {
	return "events:account:" + string(id)
}
