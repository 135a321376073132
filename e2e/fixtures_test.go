//go:build e2e

package e2e

// salesRun is a complete published run covering every payload family the
// renderer understands.
var salesRun = map[string]string{
	"index.json": `{
		"generated_at": "2024-05-01T06:00:00Z",
		"dags": [
			{"dag_id": "sales_etl", "dag_label": "Sales ETL", "generated_at": "2024-05-01T06:00:00Z", "path": "sales_etl/manifest.json"}
		]
	}`,
	"sales_etl/manifest.json": `{"dag_id": "sales_etl", "generated_at": "2024-05-01T06:00:00Z", "tasks": [
		{"task_id": "summary", "artifacts": [
			{"dag_id": "sales_etl", "task_id": "summary", "artifact_id": "kpis", "title": "KPIs",
			 "type": "metrics", "relative_path": "summary/kpis.json"},
			{"dag_id": "sales_etl", "task_id": "summary", "artifact_id": "daily", "title": "Daily sales",
			 "type": "table", "relative_path": "summary/daily.json",
			 "visualization": {"type": "line", "x_field": "date", "y_field": "total"}},
			{"dag_id": "sales_etl", "task_id": "summary", "artifact_id": "basic", "title": "Basic metrics",
			 "type": "data", "relative_path": "summary/basic.json"}
		]},
		{"task_id": "analysis", "artifacts": [
			{"dag_id": "sales_etl", "task_id": "analysis", "artifact_id": "series", "title": "Sales over time",
			 "type": "data", "relative_path": "analysis/series.json"},
			{"dag_id": "sales_etl", "task_id": "analysis", "artifact_id": "distribution", "title": "Distribution",
			 "type": "data", "relative_path": "analysis/distribution.json"},
			{"dag_id": "sales_etl", "task_id": "analysis", "artifact_id": "correlation", "title": "Correlation",
			 "type": "data", "relative_path": "analysis/correlation.json"}
		]},
		{"task_id": "clustering", "artifacts": [
			{"dag_id": "sales_etl", "task_id": "clustering", "artifact_id": "profiles", "title": "Profiles",
			 "type": "data", "relative_path": "clustering/profiles.json"},
			{"dag_id": "sales_etl", "task_id": "clustering", "artifact_id": "visualization", "title": "Segments",
			 "type": "data", "relative_path": "clustering/visualization.json"}
		]},
		{"task_id": "recommendations", "artifacts": [
			{"dag_id": "sales_etl", "task_id": "recommendations", "artifact_id": "products", "title": "Product recommendations",
			 "type": "data", "relative_path": "recommendations/products.json"},
			{"dag_id": "sales_etl", "task_id": "recommendations", "artifact_id": "missing", "title": "Not published",
			 "type": "data", "relative_path": "recommendations/missing.json"}
		]}
	]}`,
	"sales_etl/summary/kpis.json": `{"items": [
		{"id": "revenue", "label": "Revenue", "value": 1523400.5, "suffix": "USD"},
		{"id": "orders", "label": "Orders", "value": 8812},
		{"id": "churn", "label": "Churn", "value": null}
	]}`,
	"sales_etl/summary/daily.json": `{"rows": [
		{"date": "2024-04-28", "total": 1200},
		{"date": "2024-04-29", "total": "1350.5"},
		{"date": "2024-04-30", "total": "n/a"}
	]}`,
	"sales_etl/summary/basic.json": `{"basic_metrics": {
		"total_transacciones": 8812, "total_productos_vendidos": 40211,
		"clientes_unicos": 1290, "productos_unicos": 312
	}}`,
	"sales_etl/analysis/series.json": `{
		"series_name": "Daily revenue", "date_column": "fecha", "value_column": "ventas",
		"statistics": {"promedio": 1275.25, "minimo": 1200, "maximo": 1350.5},
		"data": [{"fecha": "2024-04-28", "ventas": 1200}, {"fecha": "2024-04-29", "ventas": 1350.5}]
	}`,
	"sales_etl/analysis/distribution.json": `{
		"distribution_name": "Basket metrics",
		"data": [
			{"metric_name": "items", "value": 3}, {"metric_name": "items", "value": 5},
			{"metric_name": "spend", "value": 42.5}, {"metric_name": "spend", "value": 18}
		]
	}`,
	"sales_etl/analysis/correlation.json": `{
		"matrix_name": "Customer metrics",
		"correlation_data": {
			"variables": ["frequency", "monetary", "recency"],
			"variable_names": {"monetary": "Monetary", "recency": "Recency"},
			"matrix": {
				"frequency": {"frequency": 1, "monetary": 0.8, "recency": -0.4},
				"monetary": {"frequency": 0.8, "monetary": 1, "recency": -0.2},
				"recency": {"frequency": -0.4, "monetary": -0.2, "recency": 1}
			}
		}
	}`,
	"sales_etl/clustering/profiles.json": `{"n_clusters": 2, "cluster_profiles": {
		"1": {"cluster_id": 1, "label": "Occasional", "n_customers": 800, "percentage": 62.0,
		      "metrics": {"avg_frequency": 1.4}, "business_recommendations": ["Win-back campaign"]},
		"0": {"cluster_id": 0, "label": "Loyal", "n_customers": 490, "percentage": 38.0,
		      "metrics": {"avg_frequency": 7.9}}
	}}`,
	"sales_etl/clustering/visualization.json": `{"n_clusters": 2, "visualization_data": {
		"cluster_labels": {"0": "Loyal", "1": "Occasional"},
		"distribution": {"0": 490, "1": 800},
		"cluster_statistics": [{"cluster": 0, "avg_spend": 310.2}, {"cluster": 1, "avg_spend": 45.9}]
	}}`,
	"sales_etl/recommendations/products.json": `{
		"total_products": 2, "min_support": 0.01, "min_confidence": 0.3,
		"data": [
			{"product_id": 10, "recommendations": [{"recommended_product_id": 11, "confidence": 0.6, "lift": 2.1, "support": 0.02}]},
			{"product_id": 20, "recommendations": [{"recommended_product_id": 21, "confidence": 0.4, "lift": 1.5, "support": 0.015}]}
		]
	}`,
}
