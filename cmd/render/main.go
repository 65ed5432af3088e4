// Command render builds the reference workflow definitions (chained dbt
// pipeline, conditional branch, per-plant ForEach fan-out, parameterized
// run) and prints their job documents. Useful for eyeballing the exact
// JSON the service would submit.
package main

import (
	"flag"
	"fmt"
	"os"

	"jobforge/internal/codec"
	"jobforge/internal/domain"
)

const (
	projectDir  = "/Workspace/Repos/iot-dbt-databricks"
	warehouseID = "0b4eee1bcc7b2623"
	schema      = "iot_dev"
)

func main() {
	pipeline := flag.String("pipeline", "all", "pipeline to render: dbt, conditional, foreach, parameterized, all")
	flag.Parse()

	builders := map[string]func() (*domain.Workflow, error){
		"dbt":           dbtPipeline,
		"conditional":   conditionalPipeline,
		"foreach":       forEachPipeline,
		"parameterized": parameterizedPipeline,
	}

	names := []string{"dbt", "conditional", "foreach", "parameterized"}
	if *pipeline != "all" {
		if _, ok := builders[*pipeline]; !ok {
			fmt.Fprintf(os.Stderr, "unknown pipeline %q\n", *pipeline)
			os.Exit(2)
		}
		names = []string{*pipeline}
	}

	for _, name := range names {
		workflow, err := builders[name]()
		if err != nil {
			fmt.Fprintf(os.Stderr, "build %s pipeline: %v\n", name, err)
			os.Exit(1)
		}
		document, err := codec.EncodeJSON(workflow)
		if err != nil {
			fmt.Fprintf(os.Stderr, "encode %s pipeline: %v\n", name, err)
			os.Exit(1)
		}
		fmt.Printf("--- %s ---\n%s\n", name, document)
	}
}

// dbtPipeline is the four-task chain: seed -> run -> test -> gold.
func dbtPipeline() (*domain.Workflow, error) {
	w := domain.New("iot_dbt_pipeline")
	w.Description = "IoT Smart Factory dbt pipeline: Bronze -> Silver -> Gold"
	w.MaxConcurrentRuns = 1
	w.SetSchedule(domain.Schedule{
		QuartzCronExpression: "0 0 6 * * ?",
		TimezoneID:           "UTC",
		PauseStatus:          "PAUSED",
	})
	w.SetNotifications(domain.EmailNotifications{
		OnFailure: []string{"team@company.com"},
	})

	steps := []struct {
		key     string
		desc    string
		command string
		timeout int
	}{
		{"dbt_seed", "Load seed data (CSV → Delta tables)", "dbt seed --full-refresh", 600},
		{"dbt_run_bronze_silver", "Build Bronze and Silver layer models", "dbt run --select tag:bronze tag:silver", 1200},
		{"dbt_test_silver", "Run data quality tests on Silver layer", "dbt test --select tag:silver", 600},
		{"dbt_run_gold", "Build Gold layer models (only if Silver tests pass)", "dbt run --select tag:gold", 1200},
	}

	for i, step := range steps {
		_, err := w.AddTask(step.key, dbt(step.command),
			domain.WithDescription(step.desc),
			domain.WithTimeout(step.timeout),
		)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			if err := w.AddDependency(steps[i-1].key, step.key); err != nil {
				return nil, err
			}
		}
	}

	return w, nil
}

// conditionalPipeline refreshes Gold fully or incrementally depending on
// the anomaly count measured upstream.
func conditionalPipeline() (*domain.Workflow, error) {
	w := domain.New("iot_conditional_pipeline")
	w.Description = "Pipeline with conditional Gold refresh based on anomaly count"

	_, err := w.AddTask("check_anomaly_count", domain.SQLTask{
		QueryText: `SELECT CASE WHEN count(*) > 50 THEN 'HIGH_ANOMALIES' ELSE 'NORMAL' END as anomaly_status
FROM workspace.iot_dev_silver.int_sensor_readings_cleaned
WHERE is_anomaly = true`,
		WarehouseID: warehouseID,
	}, domain.WithDescription("Count anomalies in Silver layer"))
	if err != nil {
		return nil, err
	}

	_, err = w.AddBranch("evaluate_anomalies", domain.ConditionTask{
		Op:    "EQUAL_TO",
		Left:  "{{tasks.check_anomaly_count.values.anomaly_status}}",
		Right: "HIGH_ANOMALIES",
	}, domain.WithDescription("IF anomaly count > 50 → full refresh, ELSE → incremental"))
	if err != nil {
		return nil, err
	}

	if _, err := w.AddTask("full_refresh_gold", dbt("dbt run --select tag:gold --full-refresh"),
		domain.WithDescription("Full refresh Gold tables due to high anomaly count")); err != nil {
		return nil, err
	}
	if _, err := w.AddTask("incremental_gold", dbt("dbt run --select tag:gold"),
		domain.WithDescription("Normal incremental Gold update")); err != nil {
		return nil, err
	}

	if err := w.AddDependency("check_anomaly_count", "evaluate_anomalies"); err != nil {
		return nil, err
	}
	if err := w.AddBranchDependency("evaluate_anomalies", "full_refresh_gold", domain.OutcomeTrue); err != nil {
		return nil, err
	}
	if err := w.AddBranchDependency("evaluate_anomalies", "incremental_gold", domain.OutcomeFalse); err != nil {
		return nil, err
	}

	return w, nil
}

// forEachPipeline runs a health check per plant location, three at a time.
func forEachPipeline() (*domain.Workflow, error) {
	w := domain.New("iot_per_plant_analysis")
	w.Description = "Run device health analysis for each plant location"

	_, err := w.AddTask("get_plant_locations", domain.SQLTask{
		QueryText:   "SELECT DISTINCT plant_location FROM workspace.iot_dev_gold.dim_devices",
		WarehouseID: warehouseID,
	}, domain.WithDescription("Retrieve distinct plant locations"))
	if err != nil {
		return nil, err
	}

	_, err = w.AddForEach("analyze_per_plant",
		"{{tasks.get_plant_locations.values}}",
		domain.Task{
			Key: "plant_health_check",
			Payload: domain.SQLTask{
				QueryText: `SELECT '{{input}}' as plant, count(*) as total_readings,
round(avg(health_score), 1) as avg_health
FROM workspace.iot_dev_gold.fct_device_summary s
JOIN workspace.iot_dev_gold.dim_devices d ON s.device_id = d.device_id
WHERE d.plant_location = '{{input}}'`,
				WarehouseID: warehouseID,
			},
		},
		3,
		domain.WithDescription("Run health analysis for each plant"),
	)
	if err != nil {
		return nil, err
	}

	_, err = w.AddTask("aggregate_results", domain.NotebookTask{
		NotebookPath: projectDir + "/notebooks/aggregate_health",
		BaseParameters: map[string]string{
			"run_date": "{{job.start_time.iso_date}}",
		},
	}, domain.WithDescription("Combine per-plant results into summary"))
	if err != nil {
		return nil, err
	}

	if err := w.AddDependency("get_plant_locations", "analyze_per_plant"); err != nil {
		return nil, err
	}
	if err := w.AddDependency("analyze_per_plant", "aggregate_results"); err != nil {
		return nil, err
	}

	return w, nil
}

// parameterizedPipeline threads job-level parameters into dbt commands and
// an audit insert. The {{...}} references are resolved remotely.
func parameterizedPipeline() (*domain.Workflow, error) {
	w := domain.New("iot_parameterized_pipeline")
	w.Description = "Pipeline with environment and threshold parameters"
	w.AddParameter("environment", "dev")
	w.AddParameter("temperature_threshold", "85.0")
	w.AddParameter("run_full_refresh", "false")

	_, err := w.AddTask("dbt_run_parameterized", domain.DbtTask{
		ProjectDirectory: projectDir,
		Commands: []string{
			"dbt run --target {{job.parameters.environment}} " +
				"--vars '{temperature_upper: {{job.parameters.temperature_threshold}}}'",
		},
		Schema:      "iot_{{job.parameters.environment}}",
		WarehouseID: warehouseID,
	},
		domain.WithDescription("Run dbt with dynamic parameters"),
		domain.WithRetry(domain.RetryPolicy{
			MaxRetries:             3,
			MinRetryIntervalMillis: 30000,
			RetryOnTimeout:         true,
		}),
		domain.WithTimeout(1800),
		domain.WithHealthRules(domain.HealthRule{
			Metric: "RUN_DURATION_SECONDS",
			Op:     "GREATER_THAN",
			Value:  900,
		}),
	)
	if err != nil {
		return nil, err
	}

	_, err = w.AddTask("log_run_metadata", domain.SQLTask{
		QueryText: `INSERT INTO workspace.iot_audit.run_log
VALUES (current_timestamp(), '{{job.parameters.environment}}',
'{{job.parameters.temperature_threshold}}',
'{{tasks.dbt_run_parameterized.result_state}}')`,
		WarehouseID: warehouseID,
	}, domain.WithDescription("Log run metadata for audit trail"))
	if err != nil {
		return nil, err
	}

	if err := w.AddDependency("dbt_run_parameterized", "log_run_metadata"); err != nil {
		return nil, err
	}

	return w, nil
}

func dbt(command string) domain.DbtTask {
	return domain.DbtTask{
		ProjectDirectory: projectDir,
		Commands:         []string{command},
		Schema:           schema,
		WarehouseID:      warehouseID,
	}
}
