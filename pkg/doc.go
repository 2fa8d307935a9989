// Package pkg provides the libraries behind the hermes command.
//
// # Overview
//
// Hermes describes a software project with one CodeMeta document assembled
// from the metadata the project already carries, and publishes it on a
// deposition platform. The pkg directory is organized into:
//
//  1. [model] - Paths, values, harvest contexts and the merge engine
//  2. [harvest] - Harvesters for CITATION.cff, pyproject.toml, codemeta.json,
//     git history and GitHub
//  3. [plugin] - Registration of harvesters and their processors
//  4. [workflow] - The harvest, process, curate, deposit and postprocess stages
//  5. [deposit] - Mapping and upload to Invenio-based platforms
//  6. Infrastructure: [cache], [config], [errors], [httputil],
//     [integrations], [observability], [buildinfo]
//
// # Architecture
//
// Stages share data only through the cache directory (.hermes by default):
//
//	CITATION.cff, pyproject.toml, .git, ...
//	         ↓
//	    harvest   (one harvest/<plugin>.json per harvester)
//	         ↓
//	    process   (process/codemeta.json, process/tags.json, ./codemeta.json)
//	         ↓
//	    curate    (curate/codemeta.json)
//	         ↓
//	    deposit   (deposit/invenio.json, deposit/record.json)
//
// # Quick Start
//
//	cfg, _ := config.Load(".", "")
//	wf, err := workflow.New(workflow.Options{Dir: ".", Config: cfg})
//	if err != nil {
//	    return err
//	}
//	defer wf.Close()
//
//	if _, err := wf.Harvest(ctx); err != nil {
//	    return err
//	}
//	res, err := wf.Process(ctx)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Output) // ./codemeta.json
//
// [model]: github.com/matzehuels/hermes/pkg/model
// [harvest]: github.com/matzehuels/hermes/pkg/harvest
// [plugin]: github.com/matzehuels/hermes/pkg/plugin
// [workflow]: github.com/matzehuels/hermes/pkg/workflow
// [deposit]: github.com/matzehuels/hermes/pkg/deposit/invenio
// [cache]: github.com/matzehuels/hermes/pkg/cache
// [config]: github.com/matzehuels/hermes/pkg/config
// [errors]: github.com/matzehuels/hermes/pkg/errors
// [httputil]: github.com/matzehuels/hermes/pkg/httputil
// [integrations]: github.com/matzehuels/hermes/pkg/integrations
// [observability]: github.com/matzehuels/hermes/pkg/observability
// [buildinfo]: github.com/matzehuels/hermes/pkg/buildinfo
package pkg
